package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bizadmin/internal/domain"
	"github.com/gin-gonic/gin"
)

// writeError maps err onto a status code and a {"error": msg} body. Server
// side failures are logged with their cause and answered generically.
func (h *handlers) writeError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"route", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"err", err,
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	var (
		verr *domain.ValidationError
		derr *domain.DuplicateError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &derr):
		return http.StatusBadRequest, derr.Detail
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusBadRequest, "record already exists"
	case errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest, "invalid reference: referenced record does not exist"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrTransaction):
		return http.StatusInternalServerError, "the operation could not be completed"
	case errors.Is(err, domain.ErrDependency):
		return http.StatusInternalServerError, "an external service failed, please try again later"
	}
	return http.StatusInternalServerError, "internal server error"
}

// bindJSON binds the request body into dst with gin's JSON binding.
func bindJSON(c *gin.Context, dst interface{}) error {
	return bindError(c.ShouldBindJSON(dst))
}

// bindError keeps field-level rejections from custom decoders and reduces
// every other binding failure to a generic 400.
func bindError(err error) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	if errors.Is(err, io.EOF) {
		return domain.NewValidationError("", "request body required")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field, "expected "+typeErr.Type.String())
	}
	return domain.NewValidationError("", "invalid JSON body")
}
