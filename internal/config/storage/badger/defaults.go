package badger

// BadgerDB默认配置值
const (
	// defaultPath 默认数据目录
	defaultPath = "./data/badger"

	// defaultInMemory 默认落盘
	defaultInMemory = false

	// defaultSyncWrites 事件归档允许异步刷盘
	defaultSyncWrites = false

	// defaultMemTableSize 内存表大小 16MB，事件归档写入量很小
	defaultMemTableSize = 16 << 20

	// defaultValueLogFileSize 值日志文件大小 64MB
	defaultValueLogFileSize = 64 << 20
)
