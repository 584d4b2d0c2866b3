package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data map of the common success envelope.
type Response map[string]interface{}

// Business error codes shared by all handlers.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeConflict     = 40002
	CodeInsufficient = 40003
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeServerErr    = 50001
	CodeRetryable    = 50301
)

// Success writes the common success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Created writes the success envelope with a 201 status.
func Created(c *gin.Context, data Response) {
	c.JSON(http.StatusCreated, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the common error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}
