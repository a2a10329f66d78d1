package util

import (
	"errors"
	"math"
	"math/rand"
	"time"

	mainconfig "chzzk-vod-resolver-go/config"
)

// RetryDelay 指数退避延时
func RetryDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	retryDelay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if retryDelay > maxDelay {
		retryDelay = maxDelay
	}
	return retryDelay
}

// PermanentError 标记不可重试的错误（4xx 等）
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error {
	return e.Err
}

// IsRetryable 除 PermanentError 外都可重试
func IsRetryable(err error) bool {
	var perm PermanentError
	return !errors.As(err, &perm)
}

// RetryWithBackoff 通用重试封装
// attempts: 最大尝试次数
// isRetryable: 判断 error 是否可重试
// logger: 需实现 Warnf，可为 nil
func RetryWithBackoff(attempts int, baseDelay, maxDelay time.Duration, fn func() error, isRetryable func(error) bool, logger interface{ Warnf(string, ...interface{}) }) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) || i == attempts-1 {
			return err
		}
		jitterMs := 800
		if cfg := mainconfig.Get(); cfg != nil && cfg.Crawler.DelayJitterMs > 0 {
			jitterMs = cfg.Crawler.DelayJitterMs
		}
		delay := RetryDelay(i, baseDelay, maxDelay) + time.Duration(rand.Int63n(int64(jitterMs)))*time.Millisecond
		if logger != nil {
			logger.Warnf("请求失败: %v，将在 %v 后重试 (%d/%d)", err, delay, i+1, attempts)
		}
		time.Sleep(delay)
	}
	return err
}

// Retry 默认 2s 起步，最长 60s
func Retry(attempts int, fn func() error, isRetryable func(error) bool, logger interface{ Warnf(string, ...interface{}) }) error {
	return RetryWithBackoff(attempts, 2*time.Second, 60*time.Second, fn, isRetryable, logger)
}
