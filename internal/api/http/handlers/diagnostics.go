package handlers

import (
	"bufio"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pbnjay/memory"

	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
)

// MemorySnapshot 进程内存快照（MB 为单位的字段向下取整）
type MemorySnapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	RSSMB       uint64    `json:"rss_mb"`    // 非 linux 平台为 0
	SystemMB    uint64    `json:"system_mb"` // 物理内存总量，未知时为 0
	HeapAllocMB uint64    `json:"heap_alloc_mb"`
	HeapSysMB   uint64    `json:"heap_sys_mb"`
	HeapIdleMB  uint64    `json:"heap_idle_mb"`
	HeapObjects uint64    `json:"heap_objects"`
	SysMB       uint64    `json:"sys_mb"`
	NumGC       uint32    `json:"num_gc"`
	Goroutines  int       `json:"goroutines"`
}

// MemoryReport GET /debug/memory 的响应
type MemoryReport struct {
	Process MemorySnapshot              `json:"process"`
	Modules []metrics.ModuleMemoryStats `json:"modules"`
}

// GCReport POST /debug/memory/gc 的响应
type GCReport struct {
	Before  MemorySnapshot `json:"before"`
	After   MemorySnapshot `json:"after"`
	FreedMB int64          `json:"freed_mb"` // 按堆分配计算，可能为负
}

// DiagnosticsHandler 内存诊断端点
//
// 📋 把进程级 runtime 统计与各模块自报的对象/队列数放在同一个响应里，
// 用来区分“进程在涨”和“某个模块的表在涨”。
type DiagnosticsHandler struct {
	stats StatsSource
}

// NewDiagnosticsHandler 创建诊断处理器；stats 可为 nil
func NewDiagnosticsHandler(stats StatsSource) *DiagnosticsHandler {
	return &DiagnosticsHandler{stats: stats}
}

// RegisterRoutes 注册 /debug/memory 路由
func (h *DiagnosticsHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/debug/memory")
	g.GET("", h.GetMemory)
	g.POST("/gc", h.ForceGC)
}

// GetMemory GET /debug/memory
func (h *DiagnosticsHandler) GetMemory(c *gin.Context) {
	report := MemoryReport{Process: TakeMemorySnapshot(), Modules: []metrics.ModuleMemoryStats{}}
	if h.stats != nil {
		report.Modules = append(report.Modules, h.stats.CollectAll()...)
	}
	respond(c, http.StatusOK, report)
}

// ForceGC POST /debug/memory/gc：执行 GC 并把空闲内存归还 OS
func (h *DiagnosticsHandler) ForceGC(c *gin.Context) {
	before := TakeMemorySnapshot()
	debug.FreeOSMemory()
	after := TakeMemorySnapshot()
	respond(c, http.StatusOK, GCReport{
		Before:  before,
		After:   after,
		FreedMB: int64(before.HeapAllocMB) - int64(after.HeapAllocMB),
	})
}

// TakeMemorySnapshot 读取当前 runtime 内存统计
func TakeMemorySnapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		Timestamp:   time.Now(),
		RSSMB:       readRSSBytes() >> 20,
		SystemMB:    memory.TotalMemory() >> 20,
		HeapAllocMB: m.HeapAlloc >> 20,
		HeapSysMB:   m.HeapSys >> 20,
		HeapIdleMB:  m.HeapIdle >> 20,
		HeapObjects: m.HeapObjects,
		SysMB:       m.Sys >> 20,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}
}

// readRSSBytes 读取 /proc/self/status 的 VmRSS；读不到时返回 0
func readRSSBytes() uint64 {
	if runtime.GOOS != "linux" {
		return 0
	}
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}
