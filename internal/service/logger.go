package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug" // 调试
	LogLevelInfo  LogLevel = "info"  // 信息
	LogLevelWarn  LogLevel = "warn"  // 警告
	LogLevelError LogLevel = "error" // 错误
)

// LogFormat 日志格式
type LogFormat string

const (
	LogFormatConsole LogFormat = "console" // 文本格式
	LogFormatJSON    LogFormat = "json"    // JSON格式
)

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        LogLevel  `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format       LogFormat `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	Output       []string  `yaml:"output" env:"LOG_OUTPUT" env-separator:"," env-default:"stdout"`
	FilePath     string    `yaml:"file_path" env:"LOG_FILE"`
	EnableCaller bool      `yaml:"enable_caller" env:"LOG_CALLER" env-default:"false"`
}

// NewLogger 根据配置创建zap日志器
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(string(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == LogFormatConsole {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	zc.DisableCaller = !cfg.EnableCaller
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// 初始化输出
	outputs := make([]string, 0, len(cfg.Output))
	for _, out := range cfg.Output {
		switch strings.TrimSpace(out) {
		case "stdout", "":
			outputs = append(outputs, "stdout")
		case "stderr":
			outputs = append(outputs, "stderr")
		case "file":
			if cfg.FilePath != "" {
				outputs = append(outputs, cfg.FilePath)
			}
		}
	}
	if len(outputs) == 0 {
		outputs = append(outputs, "stdout")
	}
	zc.OutputPaths = outputs
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
