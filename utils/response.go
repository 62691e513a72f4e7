package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Code       int         `json:"code,omitempty"`
	ErrorCode  string      `json:"errorCode,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// Respond writes an envelope with the given HTTP status.
func Respond(ctx *gin.Context, status int, code int, errorCode, message string, data interface{}) {
	ctx.JSON(status, Envelope{
		StatusCode: status,
		Message:    message,
		Code:       code,
		ErrorCode:  errorCode,
		Data:       data,
	})
}

// Success answers 200 with data.
func Success(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "", message, data)
}

// Created answers 201 with data.
func Created(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "", message, data)
}

// Error answers with an error envelope and no data.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, "", message, nil)
}

// AbortError writes an error envelope and stops the handler chain.
func AbortError(ctx *gin.Context, status int, code int, message string) {
	Error(ctx, status, code, message)
	ctx.Abort()
}
