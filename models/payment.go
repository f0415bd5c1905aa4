package models

import (
	"fmt"
	"time"

	"github.com/Govind-10090/bend-the-bar-gym/utils"
)

// PlanType is the membership plan a payment was made for.
type PlanType string

const (
	PlanStrengthTraining PlanType = "Strength Training"
	PlanCardio           PlanType = "Cardio"
)

// PlanPrice returns the fixed price for a plan in rupees. The second
// return is false for unknown plans.
func PlanPrice(p PlanType) (float64, bool) {
	switch p {
	case PlanStrengthTraining:
		return 700, true
	case PlanCardio:
		return 900, true
	}
	return 0, false
}

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusSuccess    PaymentStatus = "success"
	StatusAuthorized PaymentStatus = "authorized"
	StatusFailed     PaymentStatus = "failed"
	StatusRefunded   PaymentStatus = "refunded"
)

// Razorpay webhook event types this service consumes.
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentFailed     = "payment.failed"
	EventRefundProcessed   = "refund.processed"
)

// StatusForEvent maps a webhook event type to the status it drives the
// payment to. The second return is false for event types we do not
// consume; the webhook handler acknowledges those without applying
// anything. Updates are last-write-wins: Razorpay gives no usable
// sequence number on these events, so out-of-order delivery is not
// fenced.
func StatusForEvent(event string) (PaymentStatus, bool) {
	switch event {
	case EventPaymentAuthorized:
		return StatusAuthorized, true
	case EventPaymentFailed:
		return StatusFailed, true
	case EventRefundProcessed:
		return StatusRefunded, true
	}
	return "", false
}

type Payment struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	PaymentRef string        `gorm:"type:varchar(191);not null;uniqueIndex" json:"payment_ref"`
	OrderRef   string        `gorm:"type:varchar(191);not null;index" json:"order_ref"`
	Signature  string        `gorm:"type:text;not null" json:"-"`
	PlanType   PlanType      `gorm:"type:varchar(32);not null;index;index:idx_plan_status,priority:1" json:"plan_type"`
	Amount     float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status     PaymentStatus `gorm:"type:varchar(16);not null;default:'pending';index;index:idx_status_created,priority:1;index:idx_plan_status,priority:2" json:"status"`
	Email      string        `gorm:"type:varchar(191);not null;index;index:idx_email_created,priority:1" json:"email"`
	CreatedAt  time.Time     `gorm:"index;index:idx_status_created,priority:2;index:idx_email_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// Validate checks the record against the schema rules: known plan,
// amount equal to the plan's fixed price, valid status, well-formed
// email. The store calls this before every create.
func (p *Payment) Validate() error {
	price, ok := PlanPrice(p.PlanType)
	if !ok {
		return fmt.Errorf("plan type must be either %s or %s", PlanStrengthTraining, PlanCardio)
	}
	if p.Amount != price {
		return fmt.Errorf("%s plan must cost ₹%.0f", p.PlanType, price)
	}
	switch p.Status {
	case StatusPending, StatusSuccess, StatusAuthorized, StatusFailed, StatusRefunded:
	default:
		return fmt.Errorf("invalid payment status %q", p.Status)
	}
	if p.PaymentRef == "" {
		return fmt.Errorf("payment ID is required")
	}
	if p.OrderRef == "" {
		return fmt.Errorf("order ID is required")
	}
	if p.Signature == "" {
		return fmt.Errorf("signature is required")
	}
	if !utils.IsValidEmail(utils.NormalizeEmail(p.Email)) {
		return fmt.Errorf("please enter a valid email address")
	}
	return nil
}
