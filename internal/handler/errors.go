package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
)

// handleError converts domain errors to HTTP responses. Anything without
// a mapping is logged and reported as a bare 500.
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err) || errors.Is(err, domain.ErrProductInactive):
		response.NotFound(c, err.Error())
	case domain.IsAuthError(err):
		response.Unauthorized(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists):
		response.Error(c, http.StatusConflict, "EMAIL_TAKEN", err.Error(), "")
	case errors.Is(err, domain.ErrUserInactive):
		response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		response.Error(c, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), "")
	case errors.Is(err, domain.ErrOptionSoldOut):
		response.Error(c, http.StatusConflict, "OPTION_SOLD_OUT", err.Error(), "")
	default:
		logger.Get().Error("unhandled service error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.InternalError(c)
	}
	_ = c.Error(err)
}
