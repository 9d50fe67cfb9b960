package controllers

import (
	"errors"
	"net/http"

	"github.com/moyoez/detectview/types"
)

// statusFor maps a classified session error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNoSelection), errors.Is(err, types.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, types.ErrNoCompletedTask):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUpload), errors.Is(err, types.ErrStats):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
