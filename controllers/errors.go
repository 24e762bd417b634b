package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/utils"
)

type errorMapping struct {
	sentinel error
	status   int
	code     int
	fallback string
}

var errorMappings = []errorMapping{
	{services.ErrNotFound, http.StatusNotFound, 40400, "not found"},
	{services.ErrConflict, http.StatusConflict, 40900, "already exists"},
	{services.ErrInvalidArgument, http.StatusBadRequest, 40000, "invalid request"},
	{services.ErrUploadRejected, http.StatusBadRequest, 40010, "upload rejected"},
	{services.ErrUnauthorized, http.StatusUnauthorized, 40106, "unauthorized"},
	{services.ErrTooManyRequests, http.StatusTooManyRequests, 42902, "too many requests"},
}

// clientMessage returns the detail wrapped after the sentinel, e.g. "name is required"
// from "invalid argument: name is required".
func clientMessage(err, sentinel error, fallback string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		if detail := msg[i+len(prefix):]; detail != "" {
			return detail
		}
	}
	return fallback
}

// respondError maps a service error to the failure envelope. Unknown errors are
// logged and answered with a generic 500 carrying internalCode.
func respondError(ctx *gin.Context, err error, internalCode int, op string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			utils.Error(ctx, m.status, m.code, clientMessage(err, m.sentinel, m.fallback))
			return
		}
	}
	utils.Sugar.Errorw(op+" failed", "error", err, "path", ctx.FullPath(), "request_id", ctx.GetString(utils.RequestIDKey))
	utils.Error(ctx, http.StatusInternalServerError, internalCode, "internal server error")
}
