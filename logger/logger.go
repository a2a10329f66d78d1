// logger 包提供全局 logrus 实例和按回放 id 打点的辅助函数
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FieldVideoID 所有与单个回放相关的日志都带上这个字段
const FieldVideoID = "video_id"

var (
	once     sync.Once
	instance *logrus.Logger
)

// InitLogger 只在第一次调用时生效
// logFile 为空时只输出到 stderr，stdout 留给命令行的解析结果
func InitLogger(logFile, level string, maxSizeMB, maxBackups, maxAge int) *logrus.Logger {
	once.Do(func() {
		instance = logrus.New()

		logLevel, err := logrus.ParseLevel(level)
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		instance.SetLevel(logLevel)
		instance.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})

		if logFile == "" {
			instance.SetOutput(os.Stderr)
			return
		}
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			instance.Errorf("创建日志目录失败: %v", err)
		}
		instance.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   true,
			LocalTime:  true,
		}))
	})

	return instance
}

// GetLogger 未初始化时 panic
func GetLogger() *logrus.Logger {
	if instance == nil {
		panic("logger not initialized")
	}
	return instance
}

// WithVideo 给日志加上回放 id，log 为 nil 时丢弃输出
func WithVideo(log logrus.FieldLogger, videoID string) *logrus.Entry {
	return OrDiscard(log).WithField(FieldVideoID, videoID)
}

// OrDiscard 库代码接受可选 logger，nil 时返回一个不输出的实例
func OrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
