// Package configs 内置的环境配置
package configs

import _ "embed"

//go:embed development/config.json
var developmentConfig []byte

//go:embed testing/config.json
var testingConfig []byte

// GetDevelopmentConfig 获取开发环境配置
func GetDevelopmentConfig() []byte {
	return developmentConfig
}

// GetTestingConfig 获取测试环境配置（内存存储、随机端口、定时任务关闭）
func GetTestingConfig() []byte {
	return testingConfig
}

// Get 按环境名取配置，未知环境返回 nil
func Get(env string) []byte {
	switch env {
	case "dev", "development":
		return developmentConfig
	case "test", "testing":
		return testingConfig
	default:
		return nil
	}
}
