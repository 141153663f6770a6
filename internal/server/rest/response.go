package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
)

var errRouteNotFound = common.NotFound("ROUTE_NOT_FOUND")

// envelope is the body of every API response.
type envelope struct {
	Success     bool   `json:"success"`
	MessageCode string `json:"messageCode"`
	StatusCode  int    `json:"statusCode"`
	Data        any    `json:"data,omitempty"`
	Errors      any    `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, code string, data any) {
	c.JSON(status, envelope{Success: true, MessageCode: code, StatusCode: status, Data: data})
}

// abort is the single error boundary: it maps err onto the AppError
// taxonomy and writes the error envelope.
func (s *Server) abort(c *gin.Context, err error) {
	appErr := toAppError(err)
	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "request failed", "code", appErr.Code, "error", err)
	}
	c.AbortWithStatusJSON(status, envelope{
		Success:     false,
		MessageCode: appErr.Code,
		StatusCode:  status,
		Errors:      appErr.Details,
	})
}

func (s *Server) recover(c *gin.Context, rec any) {
	s.abort(c, fmt.Errorf("panic: %v", rec))
}

func toAppError(err error) *common.AppError {
	if appErr, ok := common.AsAppError(err); ok {
		return appErr
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return common.ErrValidation.WithDetails(fieldCodes(verrs))
	}
	if dbx.IsUniqueViolation(err) {
		return common.Wrap(err, common.KindDuplicate, common.ErrDuplicate.Code)
	}
	if dbx.IsForeignKeyViolation(err) {
		return common.Wrap(err, common.KindUnprocessable, common.ErrMissingRef.Code)
	}
	return common.Wrap(err, common.KindInternal, common.ErrInternal.Code)
}

// fieldCodes flattens ozzo errors into field -> code.
func fieldCodes(verrs validation.Errors) map[string]string {
	out := make(map[string]string, len(verrs))
	for field, err := range verrs {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}
