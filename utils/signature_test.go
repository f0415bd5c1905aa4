package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func checkoutSig(orderRef, paymentRef, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyCheckout(t *testing.T) {
	v := NewSignatureVerifier("key-secret", "webhook-secret")
	sig := checkoutSig("order_1", "pay_1", "key-secret")

	if !v.VerifyCheckout("order_1", "pay_1", sig) {
		t.Fatal("expected valid checkout signature to verify")
	}
	// Deterministic: the same inputs verify again.
	if !v.VerifyCheckout("order_1", "pay_1", sig) {
		t.Fatal("expected verification to be deterministic")
	}
	if v.VerifyCheckout("order_2", "pay_1", sig) {
		t.Fatal("expected different order ref to fail")
	}
	if v.VerifyCheckout("order_1", "pay_1", checkoutSig("order_1", "pay_1", "wrong-secret")) {
		t.Fatal("expected signature under wrong secret to fail")
	}
}

func TestVerifyCheckoutSingleCharacterFlip(t *testing.T) {
	v := NewSignatureVerifier("key-secret", "webhook-secret")
	sig := checkoutSig("order_1", "pay_1", "key-secret")

	for i := range sig {
		flipped := []byte(sig)
		if flipped[i] == 'f' {
			flipped[i] = '0'
		} else {
			flipped[i] = 'f'
		}
		if string(flipped) == sig {
			continue
		}
		if v.VerifyCheckout("order_1", "pay_1", string(flipped)) {
			t.Fatalf("expected flip at position %d to fail verification", i)
		}
	}
}

func TestVerifyWebhook(t *testing.T) {
	v := NewSignatureVerifier("key-secret", "webhook-secret")
	body := []byte(`{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)

	mac := hmac.New(sha256.New, []byte("webhook-secret"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !v.VerifyWebhook(body, sig) {
		t.Fatal("expected valid webhook signature to verify")
	}
	if v.VerifyWebhook([]byte(`{"event":"payment.failed"}`), sig) {
		t.Fatal("expected signature for different body to fail")
	}
	if v.VerifyWebhook(body, "") {
		t.Fatal("expected missing signature header to fail")
	}
	// The webhook secret, not the key secret, authenticates webhooks.
	mac = hmac.New(sha256.New, []byte("key-secret"))
	mac.Write(body)
	if v.VerifyWebhook(body, hex.EncodeToString(mac.Sum(nil))) {
		t.Fatal("expected digest under checkout secret to fail webhook verification")
	}
}
