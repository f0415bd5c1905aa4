package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Govind-10090/bend-the-bar-gym/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *PaymentStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "payments.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPaymentStore(db)
}

func cardioPayment(ref string) *models.Payment {
	return &models.Payment{
		PaymentRef: ref,
		OrderRef:   "order_" + ref,
		Signature:  "sig",
		PlanType:   models.PlanCardio,
		Amount:     900,
		Status:     models.StatusSuccess,
		Email:      "a@b.com",
	}
}

func TestCreateAndFindByRef(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := cardioPayment("pay_1")
	p.Email = " A@B.COM "
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.FindByRef(ctx, "pay_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Email != "a@b.com" {
		t.Fatalf("expected normalized email, got %q", got.Email)
	}
	if got.Status != models.StatusSuccess {
		t.Fatalf("expected status success, got %q", got.Status)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected generated timestamps")
	}
}

func TestCreateRejectsAmountPlanMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := cardioPayment("pay_1")
	p.Amount = 700
	err := s.Create(ctx, p)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := s.FindByRef(ctx, "pay_1"); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected nothing persisted after validation failure")
	}
}

func TestCreateDuplicateRefLeavesFirstRecordUnmodified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, cardioPayment("pay_1")); err != nil {
		t.Fatalf("first create: %v", err)
	}

	dup := cardioPayment("pay_1")
	dup.Email = "other@b.com"
	dup.OrderRef = "order_other"
	if err := s.Create(ctx, dup); !errors.Is(err, ErrDuplicateRef) {
		t.Fatalf("expected ErrDuplicateRef, got %v", err)
	}

	got, err := s.FindByRef(ctx, "pay_1")
	if err != nil {
		t.Fatalf("find after duplicate: %v", err)
	}
	if got.Email != "a@b.com" || got.OrderRef != "order_pay_1" {
		t.Fatalf("first record was modified by duplicate attempt: %+v", got)
	}
}

func TestUpdateStatusByRef(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, cardioPayment("pay_1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateStatusByRef(ctx, "pay_1", models.StatusAuthorized); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.FindByRef(ctx, "pay_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != models.StatusAuthorized {
		t.Fatalf("expected authorized, got %q", got.Status)
	}
}

func TestUpdateStatusByRefUnknownRefIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpdateStatusByRef(ctx, "pay_missing", models.StatusAuthorized); err != nil {
		t.Fatalf("expected no error for unknown ref, got %v", err)
	}
	var count int64
	// nothing should have been created as a side effect
	if list, err := s.ListRecent(ctx, 100); err != nil {
		t.Fatalf("list: %v", err)
	} else {
		count = int64(len(list))
	}
	if count != 0 {
		t.Fatalf("expected empty table, found %d records", count)
	}
}

func TestListRecentBoundAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		p := cardioPayment(fmt.Sprintf("pay_%02d", i))
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	got, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 records, got %d", len(got))
	}
	if got[0].PaymentRef != "pay_14" {
		t.Fatalf("expected newest first, got %s", got[0].PaymentRef)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("records not in descending creation order at %d", i)
		}
	}
}

func TestAggregateByPlan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	strength1 := &models.Payment{
		PaymentRef: "pay_s1", OrderRef: "order_s1", Signature: "sig",
		PlanType: models.PlanStrengthTraining, Amount: 700,
		Status: models.StatusSuccess, Email: "a@b.com",
	}
	strength2 := &models.Payment{
		PaymentRef: "pay_s2", OrderRef: "order_s2", Signature: "sig",
		PlanType: models.PlanStrengthTraining, Amount: 700,
		Status: models.StatusFailed, Email: "a@b.com",
	}
	cardio := cardioPayment("pay_c1")
	for _, p := range []*models.Payment{strength1, strength2, cardio} {
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.PaymentRef, err)
		}
	}

	stats, err := s.AggregateByPlan(ctx)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 plan groups, got %d", len(stats))
	}

	byPlan := make(map[models.PlanType]PlanStats)
	for _, st := range stats {
		byPlan[st.PlanType] = st
	}

	st := byPlan[models.PlanStrengthTraining]
	if st.Total != 2 || st.SuccessCount != 1 || st.TotalAmount != 1400 {
		t.Fatalf("unexpected Strength Training stats: %+v", st)
	}
	ca := byPlan[models.PlanCardio]
	if ca.Total != 1 || ca.SuccessCount != 1 || ca.TotalAmount != 900 {
		t.Fatalf("unexpected Cardio stats: %+v", ca)
	}
}
