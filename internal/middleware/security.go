package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// The API only serves JSON, exports and equipment photos.
		csp := strings.Join([]string{
			"default-src 'none'",
			"img-src 'self' data:",
			"frame-ancestors 'none'",
			"base-uri 'none'",
			"form-action 'none'",
		}, "; ")
		w.Header().Set("Content-Security-Policy", csp)

		next.ServeHTTP(w, r)
	})
}

// Request body limits
const (
	MaxJSONBodySize  = 1 << 20 // 1 MB for JSON requests
	MaxImageBodySize = 8 << 20 // 8 MB for equipment photos
)

// LimitBodyMiddleware caps the request body. Image uploads get a larger
// allowance than JSON.
func LimitBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			maxSize := int64(MaxJSONBodySize)
			if strings.HasPrefix(r.Header.Get("Content-Type"), "image/") || strings.HasSuffix(r.URL.Path, "/image") {
				maxSize = MaxImageBodySize
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		}

		next.ServeHTTP(w, r)
	})
}
