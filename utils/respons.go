package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status   bool        `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
	Category ErrorKind   `json:"category,omitempty"`
	Allowed  []string    `json:"allowed,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err with its category. Unknown errors are logged and
// reported as internal without leaking their text.
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	code := appErr.Kind.HTTPStatus()

	message := appErr.Message
	if appErr.Kind == KindInternal {
		ErrorLogger.WithError(err).WithField("path", c.Request.URL.Path).Error("internal error")
		message = http.StatusText(http.StatusInternalServerError)
	}
	if appErr.Kind == KindTransient {
		c.Header("Retry-After", "1")
	}

	c.JSON(code, JSONResponse{
		Status:   false,
		Message:  message,
		Category: appErr.Kind,
		Allowed:  appErr.Allowed,
	})
}

// AbortWithError is RespondError for middlewares.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
