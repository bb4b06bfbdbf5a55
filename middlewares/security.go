package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// UploadsPrefix is where the router serves generated QR images.
const UploadsPrefix = "/uploads/"

const (
	apiCSP    = "default-src 'none'; frame-ancestors 'none'"
	uploadCSP = "default-src 'none'; img-src 'self'"
)

// SecurityHeaders locks responses down for a JSON API. QR images under
// UploadsPrefix may be embedded and cached; their file names never repeat.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")

		if strings.HasPrefix(c.Request.URL.Path, UploadsPrefix) {
			c.Header("Content-Security-Policy", uploadCSP)
			c.Header("Cache-Control", "public, max-age=86400, immutable")
		} else {
			c.Header("Content-Security-Policy", apiCSP)
			c.Header("X-Frame-Options", "DENY")
			c.Header("Cache-Control", "no-store")
		}

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
