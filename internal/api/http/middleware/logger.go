package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	infralog "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// AccessLog 结构化访问日志
//
// 探活与指标抓取只记 Debug，其余按状态码分级：5xx Error，4xx Warn，其它 Info。
func AccessLog(logger infralog.Logger) gin.HandlerFunc {
	zl := logger.GetZapLogger()
	if zl == nil {
		zl = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			zl.Error("HTTP request", fields...)
		case status >= 400:
			zl.Warn("HTTP request", fields...)
		case isProbe(c.Request.URL.Path):
			zl.Debug("HTTP request", fields...)
		default:
			zl.Info("HTTP request", fields...)
		}
	}
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/metrics"
}
