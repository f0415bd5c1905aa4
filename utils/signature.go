package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks the two Razorpay trust boundaries: the
// checkout confirmation a client posts back after paying, and the
// webhook events Razorpay delivers server-to-server. Both are
// HMAC-SHA256 over different messages with different secrets.
type SignatureVerifier struct {
	keySecret     string
	webhookSecret string
}

func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{keySecret: keySecret, webhookSecret: webhookSecret}
}

// checkoutDigest computes hex(HMAC-SHA256(orderRef + "|" + paymentRef, keySecret)).
func (v *SignatureVerifier) checkoutDigest(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(v.keySecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckout reports whether signature is the valid checkout
// signature for the (orderRef, paymentRef) pair. Comparison is
// constant time.
func (v *SignatureVerifier) VerifyCheckout(orderRef, paymentRef, signature string) bool {
	expected := v.checkoutDigest(orderRef, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhook reports whether signature matches the HMAC of the raw
// webhook body under the webhook secret. The body must be the exact
// bytes received, not a re-serialization.
func (v *SignatureVerifier) VerifyWebhook(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(v.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
