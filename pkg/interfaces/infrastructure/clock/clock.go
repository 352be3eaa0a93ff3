// Package clock provides clock interfaces.
package clock

import "time"

// Clock 统一时间源
//
// 请求创建时间、折叠实例的 programCounter、定时任务的到期判断都从这里取时间，
// 测试中替换为 MockClock 即可得到确定的结果。
type Clock interface {
	// Now 获取当前时间
	Now() time.Time

	// Since 计算从指定时间到现在的持续时间
	Since(t time.Time) time.Duration

	// Unix 获取当前Unix时间戳（秒）
	Unix() int64
}
