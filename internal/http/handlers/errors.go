package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/http/middleware"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	payload := gin.H{
		"error":   message,
		"code":    code,
		"details": details,
	}
	if reqID := middleware.GetRequestID(c); reqID != "" {
		payload["request_id"] = reqID
	}
	c.JSON(status, payload)
}

// RespondDomainError maps domain errors to HTTP responses. Validation,
// conflict and policy errors are safe to show verbatim; anything internal is
// hidden behind a generic message.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsPolicy(err):
		respondError(c, http.StatusUnprocessableEntity, "policy_rejected", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "une erreur est survenue", nil)
	}
}
