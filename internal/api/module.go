// Package api 对外接口层
package api

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkrelay/internal/api/http"
)

// Module 返回API模块
//
// 目前只有 HTTP；Invoke 保证服务器在没有其他消费者时也被构造并启动。
func Module() fx.Option {
	return fx.Module("api",
		http.Module(),
		fx.Invoke(func(*http.Server) {}),
	)
}
