package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/zkrelay/internal/api/http/types"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
)

// StatsSource 模块内存统计来源
type StatsSource interface {
	CollectAll() []metrics.ModuleMemoryStats
}

// HealthHandler 健康检查
type HealthHandler struct {
	version   string
	startTime time.Time
	stats     StatsSource
}

// NewHealthHandler 创建健康检查处理器；stats 可为 nil
func NewHealthHandler(version string, stats StatsSource) *HealthHandler {
	return &HealthHandler{version: version, startTime: time.Now(), stats: stats}
}

// RegisterRoutes 注册 /healthz
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.GetHealth)
}

// GetHealth GET /healthz
func (h *HealthHandler) GetHealth(c *gin.Context) {
	components := make(map[string]interface{})
	if h.stats != nil {
		for _, s := range h.stats.CollectAll() {
			components[s.Module] = s
		}
	}
	c.JSON(http.StatusOK, apitypes.HealthResponse{
		Status:     "healthy",
		Version:    h.version,
		Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
		Components: components,
	})
}
