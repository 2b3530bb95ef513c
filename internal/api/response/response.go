package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Message is the body of every non-data response.
type Message struct {
	Msg string `json:"msg"`
}

// SuccessResponse writes extras as a 200 JSON body.
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, extras)
}

// MessageResponse writes a {msg} body with the given status.
func MessageResponse(c *gin.Context, code int, message string) {
	c.JSON(code, Message{Msg: message})
}

// ErrorResponse writes a {msg} body and aborts the handler chain.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Message{Msg: message})
}
