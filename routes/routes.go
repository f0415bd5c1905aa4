package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Govind-10090/bend-the-bar-gym/controllers"
	"github.com/Govind-10090/bend-the-bar-gym/middleware"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// InitRouter wires the payment endpoints under /api. Dependencies are
// injected; the router owns no state of its own.
func InitRouter(pc *controllers.PaymentController, webhookLimiter *middleware.WebhookLimiter) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for container health probes (root level)
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   "bend-the-bar-api",
		})
	})).Methods(http.MethodGet)

	// CORS middleware - origins from CORS_ALLOWED_ORIGINS (comma-separated);
	// the checkout page may be served from anywhere, so default open.
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	origins := []string{"*"}
	if originsEnv != "" {
		origins = origins[:0]
		for _, p := range strings.Split(originsEnv, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-Razorpay-Signature", "X-Requested-With", "X-Request-ID"}),
		)(next)
	})

	api := r.PathPrefix("/api").Subrouter()

	// Razorpay webhook: 500/ip sliding window, localhost whitelisted
	api.Handle("/webhook", webhookLimiter.Middleware(http.HandlerFunc(pc.Webhook))).Methods(http.MethodPost)

	api.Handle("/verify-payment", http.HandlerFunc(pc.VerifyPayment)).Methods(http.MethodPost)
	api.Handle("/payment-status/{paymentId}", http.HandlerFunc(pc.PaymentStatus)).Methods(http.MethodGet)
	api.Handle("/payment-stats", http.HandlerFunc(pc.PaymentStats)).Methods(http.MethodGet)
	api.Handle("/recent-payments", http.HandlerFunc(pc.RecentPayments)).Methods(http.MethodGet)

	// Unmatched routes (and method mismatches) answer with a plain-text 404
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not Found"))
	})
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r
}
