package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// writeError maps service errors to status codes and response bodies.
// Unexpected errors are logged and answered with a generic 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		failure     *auth.Failure
		outstanding *common.TokenOutstandingError
	)

	switch {
	case errors.As(err, &failure):
		abort(c, http.StatusUnauthorized, string(failure.Code), tokenFailureMessage(failure.Code))

	case errors.Is(err, common.ErrInvalidCredentials):
		abort(c, http.StatusUnauthorized, "LOGIN_FAILED", "Login failed, please check your email and password and try again")
	case errors.Is(err, common.ErrEmailNotVerified):
		abort(c, http.StatusUnauthorized, "EMAIL_NOT_VERIFIED", "Email is not verified, please check your inbox")

	case errors.As(err, &outstanding):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":            "A token was already sent, please check your inbox",
			"code":             "TOKEN_ALREADY_ISSUED",
			"remainingMinutes": outstanding.RemainingMinutes(),
		})
	case errors.Is(err, common.ErrPhoneLimitExceeded):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": "Phone limit reached",
			"code":  "PHONE_LIMIT_EXCEEDED",
			"limit": common.MaxPhonesPerUser,
		})
	case errors.Is(err, common.ErrEmailAlreadyRegistered):
		abort(c, http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "Email is already registered")
	case errors.Is(err, common.ErrEmailAlreadyVerified):
		abort(c, http.StatusConflict, "EMAIL_ALREADY_VERIFIED", "Email is already verified")

	case errors.Is(err, common.ErrEphemeralTokenNotFound):
		abort(c, http.StatusNotFound, "TOKEN_NOT_FOUND", "Token not found")
	case errors.Is(err, common.ErrEphemeralTokenExpired):
		abort(c, http.StatusGone, "TOKEN_EXPIRED", "Token expired, please request a new one")
	case errors.Is(err, common.ErrorNotFound):
		abort(c, http.StatusNotFound, "NOT_FOUND", "Not found")

	case errors.Is(err, common.ErrorValidation):
		abort(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())

	default:
		h.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "err", err)
		abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

func tokenFailureMessage(code auth.Code) string {
	switch code {
	case auth.CodeNoToken:
		return "Authentication token is missing"
	case auth.CodeTokenExpired:
		return "Token has expired"
	case auth.CodeWrongType:
		return "Wrong token type"
	case auth.CodeTokenRevoked:
		return "Token has been revoked"
	}
	return "Invalid token"
}
