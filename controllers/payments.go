package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Govind-10090/bend-the-bar-gym/middleware"
	"github.com/Govind-10090/bend-the-bar-gym/models"
	"github.com/Govind-10090/bend-the-bar-gym/store"
	"github.com/Govind-10090/bend-the-bar-gym/utils"

	"github.com/gorilla/mux"
)

const recentPaymentsLimit = 10

// PaymentController owns the payment HTTP surface. Dependencies are
// injected at startup; there are no package-level handles.
type PaymentController struct {
	store    *store.PaymentStore
	verifier *utils.SignatureVerifier
	mailer   utils.ReceiptSender
}

func NewPaymentController(s *store.PaymentStore, v *utils.SignatureVerifier, m utils.ReceiptSender) *PaymentController {
	return &PaymentController{store: s, verifier: v, mailer: m}
}

type verifyPaymentRequest struct {
	RazorpayPaymentID string  `json:"razorpay_payment_id" validate:"required"`
	RazorpayOrderID   string  `json:"razorpay_order_id" validate:"required"`
	RazorpaySignature string  `json:"razorpay_signature" validate:"required"`
	PlanType          string  `json:"plan_type" validate:"required"`
	Amount            float64 `json:"amount"`
	Email             string  `json:"email" validate:"required,email"`
}

// POST /api/verify-payment
func (c *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if !c.verifier.VerifyCheckout(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		log.Printf("[payments] signature mismatch for payment %s", req.RazorpayPaymentID)
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Payment verification failed"})
		return
	}

	payment := models.Payment{
		PaymentRef: req.RazorpayPaymentID,
		OrderRef:   req.RazorpayOrderID,
		Signature:  req.RazorpaySignature,
		PlanType:   models.PlanType(req.PlanType),
		Amount:     req.Amount,
		Email:      req.Email,
		Status:     models.StatusSuccess,
	}

	if err := c.store.Create(r.Context(), &payment); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateRef):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Payment already processed"})
		case errors.Is(err, store.ErrValidation):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Payment validation failed"})
		default:
			log.Printf("[payments] create failed for %s: %v", payment.PaymentRef, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		}
		return
	}

	// The record is durable at this point. A relay failure still fails
	// the request; the client sees a 500 for a payment that was in fact
	// recorded. Known fragility, kept from the original flow.
	if err := c.mailer.SendReceipt(payment.Email, string(payment.PlanType), payment.Amount, payment.PaymentRef); err != nil {
		log.Printf("[payments] receipt email failed for %s: %v", payment.PaymentRef, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment verified successfully"})
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// POST /api/webhook
//
// Acknowledgment is decoupled from event recognition: any
// authentically signed event gets a 200, otherwise Razorpay retries
// event types we deliberately do not consume.
func (c *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteRaw(w, http.StatusBadRequest, map[string]string{"error": "Invalid body"})
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !c.verifier.VerifyWebhook(body, signature) {
		log.Printf("[webhook] invalid signature from %s", r.RemoteAddr)
		utils.WriteRaw(w, http.StatusBadRequest, map[string]string{"error": "Invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		utils.WriteRaw(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}

	if status, ok := models.StatusForEvent(event.Event); ok {
		ref := event.Payload.Payment.Entity.ID
		if err := c.store.UpdateStatusByRef(r.Context(), ref, status); err != nil {
			log.Printf("[webhook] status update failed for %s (%s): %v", ref, event.Event, err)
			utils.WriteRaw(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
		log.Printf("[webhook] %s -> %s for payment %s", event.Event, status, ref)
	} else {
		log.Printf("[webhook] WARN: unhandled event type %q, acknowledging", event.Event)
	}

	utils.WriteRaw(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/payment-status/{paymentId}
func (c *PaymentController) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["paymentId"]

	payment, err := c.store.FindByRef(r.Context(), ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Payment not found"})
			return
		}
		log.Printf("[payments] status lookup failed for %s: %v", ref, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteRaw(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"status":    payment.Status,
		"plan_type": payment.PlanType,
		"amount":    payment.Amount,
	})
}

// GET /api/payment-stats
func (c *PaymentController) PaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.store.AggregateByPlan(r.Context())
	if err != nil {
		log.Printf("[payments] stats query failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Error fetching payment statistics"})
		return
	}

	utils.WriteRaw(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

type recentPayment struct {
	PaymentRef string               `json:"razorpay_payment_id"`
	PlanType   models.PlanType      `json:"plan_type"`
	Amount     float64              `json:"amount"`
	Status     models.PaymentStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	Email      string               `json:"email"`
}

// GET /api/recent-payments
func (c *PaymentController) RecentPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := c.store.ListRecent(r.Context(), recentPaymentsLimit)
	if err != nil {
		log.Printf("[payments] recent query failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Error fetching recent payments"})
		return
	}

	out := make([]recentPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, recentPayment{
			PaymentRef: p.PaymentRef,
			PlanType:   p.PlanType,
			Amount:     p.Amount,
			Status:     p.Status,
			CreatedAt:  p.CreatedAt,
			Email:      p.Email,
		})
	}

	utils.WriteRaw(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"payments": out,
	})
}
