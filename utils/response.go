package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the uniform failure body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response whose body is payload merged with "success": true.
func Success(ctx *gin.Context, payload gin.H) {
	SuccessStatus(ctx, 200, payload)
}

// SuccessStatus is Success with an explicit status code.
func SuccessStatus(ctx *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	ctx.JSON(status, body)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	ctx.JSON(status, ErrorResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}
