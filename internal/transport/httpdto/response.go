package httpdto

import (
	"net/http"

	livepoll_errors "livepoll/pkg/errors"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// FromError returns the HTTP status and envelope for err. Rejections keep
// their message; transient and internal failures get a generic one.
func FromError(err error) (int, Response[any]) {
	status := livepoll_errors.HTTPStatus(err)
	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		message = "temporarily unavailable, retry the request"
	case http.StatusInternalServerError:
		message = "internal error"
	}
	return status, NewErrorResponse(message, livepoll_errors.Code(err))
}
