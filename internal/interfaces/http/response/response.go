package response

import (
	"errors"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/pkg/logger"
)

var providerDiagnostics atomic.Bool

// SetProviderDiagnostics toggles raw provider codes and messages in error
// details. Only development servers should enable it.
func SetProviderDiagnostics(enabled bool) {
	providerDiagnostics.Store(enabled)
}

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps err onto the API error taxonomy and sends it
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)

	details := make(map[string]any, len(appErr.Details)+3)
	for k, v := range appErr.Details {
		details[k] = v
	}

	var extErr *domainerrors.ExternalError
	if errors.As(err, &extErr) && providerDiagnostics.Load() {
		details["service"] = extErr.Service
		if extErr.Code != "" {
			details["providerCode"] = extErr.Code
		}
		if extErr.Message != "" {
			details["providerMessage"] = extErr.Message
		}
	}

	if appErr.Status >= 500 && c.Request != nil {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message, // Backward compatibility
	}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(appErr.Status, body)
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
