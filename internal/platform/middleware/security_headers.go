package middleware

import (
	"github.com/labstack/echo/v4"
)

// securityHeaders are set on every response. The API serves JSON only and
// carries patient data, so nothing may be framed, sniffed or cached.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "0",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Referrer-Policy":           "no-referrer",
	"Cache-Control":             "no-store",
}

// SecurityHeaders sets the hardening headers before the handler runs.
// In development HSTS is left out so plain-HTTP local runs are not pinned.
func SecurityHeaders(dev bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for k, v := range securityHeaders {
				if dev && k == "Strict-Transport-Security" {
					continue
				}
				h.Set(k, v)
			}
			return next(c)
		}
	}
}
