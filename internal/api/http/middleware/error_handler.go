package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/zkrelay/internal/api/http/types"
	infralog "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// ErrorHandler 把处理器通过 c.Error 挂上的最后一个错误写成统一错误响应
//
// 处理器 panic 时同样返回 500，不把进程带崩。
func ErrorHandler(logger infralog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				WriteError(c, http.StatusInternalServerError, apitypes.ErrInternal, fmt.Sprintf("internal error: %v", r))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, code := apitypes.Classify(err)
		if status >= http.StatusInternalServerError {
			logger.Errorf("请求处理失败: path=%s, code=%s, err=%v", c.Request.URL.Path, code, err)
		}
		WriteError(c, status, code, err.Error())
	}
}

// WriteError 写入错误响应并中止后续处理
func WriteError(c *gin.Context, status int, code, message string) {
	resp := apitypes.NewErrorResponse(code, message, nil).WithRequestID(GetRequestID(c))
	c.AbortWithStatusJSON(status, resp)
}
