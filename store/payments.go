package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Govind-10090/bend-the-bar-gym/models"
	"github.com/Govind-10090/bend-the-bar-gym/utils"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Sentinel errors forming the store's error taxonomy. Anything not
// wrapping one of these is a dependency failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateRef = errors.New("payment ref already exists")
	ErrNotFound     = errors.New("payment not found")
)

// PlanStats is one row of the per-plan aggregate. The _id key keeps the
// wire shape the dashboard consumes.
type PlanStats struct {
	PlanType     models.PlanType `gorm:"column:plan_type" json:"_id"`
	Total        int64           `json:"total"`
	TotalAmount  float64         `json:"totalAmount"`
	SuccessCount int64           `json:"successCount"`
}

// PaymentStore persists Payment records. Uniqueness of payment_ref is
// enforced by the unique index, which is the sole concurrency-safety
// mechanism: of two concurrent creates with the same ref exactly one
// succeeds and the other observes ErrDuplicateRef.
type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// Create validates and inserts a payment. The email is normalized
// before the write. Returns ErrValidation or ErrDuplicateRef wrapped
// with detail; the existing record is never overwritten on a duplicate.
func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p.Email = utils.NormalizeEmail(p.Email)
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateRef, p.PaymentRef)
		}
		return err
	}
	return nil
}

// UpdateStatusByRef sets the status (and updated_at) of the payment
// with the given ref. A ref that matches nothing is a no-op, not an
// error: webhook events may reference payments this system never
// recorded.
func (s *PaymentStore) UpdateStatusByRef(ctx context.Context, ref string, status models.PaymentStatus) error {
	return s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("payment_ref = ?", ref).
		Update("status", status).Error
}

// FindByRef returns the payment with the given ref or ErrNotFound.
func (s *PaymentStore) FindByRef(ctx context.Context, ref string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("payment_ref = ?", ref).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, err
	}
	return &p, nil
}

// ListRecent returns up to limit payments, newest first.
func (s *PaymentStore) ListRecent(ctx context.Context, limit int) ([]models.Payment, error) {
	var out []models.Payment
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AggregateByPlan returns, per plan type, the record count, amount sum
// and success count. Row order is unspecified.
func (s *PaymentStore) AggregateByPlan(ctx context.Context) ([]PlanStats, error) {
	var stats []PlanStats
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("plan_type, COUNT(*) AS total, COALESCE(SUM(amount), 0) AS total_amount, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS success_count", models.StatusSuccess).
		Group("plan_type").
		Scan(&stats).Error
	return stats, err
}

// isDuplicateKey recognizes unique-index violations across the MySQL
// driver, GORM's translated error, and the sqlite driver used in tests.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
