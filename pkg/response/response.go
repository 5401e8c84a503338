package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StandardResponse is the unified response envelope
type StandardResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries the machine readable code of a failed request
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReplySuccess sends a 200 OK with message only
func ReplySuccess(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: msg})
}

// ReplySuccessWithData sends a 200 OK with message and data payload
func ReplySuccessWithData(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: msg, Data: data})
}

// ReplyCreated sends a 201 Created with the created resource
func ReplyCreated(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, StandardResponse{Success: true, Message: msg, Data: data})
}

// ReplyError sends the error envelope with the given status and code
func ReplyError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, StandardResponse{
		Success: false,
		Message: msg,
		Error:   &ErrorBody{Code: code, Message: msg},
	})
}

// AbortWithError is ReplyError followed by c.Abort, for use in middleware
func AbortWithError(c *gin.Context, status int, code, msg string) {
	ReplyError(c, status, code, msg)
	c.Abort()
}
