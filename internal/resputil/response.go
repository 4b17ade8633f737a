package resputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 是所有接口统一的返回格式
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response[any]{
		Code: OK,
		Data: data,
		Msg:  "success",
	})
}

// Error responds 500 with errorCode; use HTTPError for a specific status.
func Error(c *gin.Context, msg string, errorCode ErrorCode) {
	HTTPError(c, http.StatusInternalServerError, msg, errorCode)
}

func HTTPError(c *gin.Context, httpCode int, msg string, errorCode ErrorCode) {
	c.JSON(httpCode, Response[any]{
		Code: errorCode,
		Data: nil,
		Msg:  msg,
	})
}

func BadRequestError(c *gin.Context, msg string) {
	HTTPError(c, http.StatusBadRequest, msg, InvalidRequest)
}
