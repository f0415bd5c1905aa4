package middleware

import (
	"net/http"
	"os"
	"strconv"
)

// MaxBodyMiddleware caps the request body size, read from MAX_BODY_BYTES.
// Checkout confirmations and webhook events are small JSON documents, so
// the default is a conservative 256 KiB.
func MaxBodyMiddleware(next http.Handler) http.Handler {
	max := int64(256 << 10)
	if s := os.Getenv("MAX_BODY_BYTES"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			max = v
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, max)
		next.ServeHTTP(w, r)
	})
}
