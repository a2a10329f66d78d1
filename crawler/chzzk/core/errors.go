package core

import (
	"errors"
	"fmt"
)

// ExpectedError 可以直接展示给用户的错误，不属于程序崩溃
type ExpectedError interface {
	error
	Expected() bool
}

// NoMatchError URL 不是 chzzk VOD 地址
type NoMatchError struct {
	URL string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("unsupported url: %s", e.URL)
}

func (e *NoMatchError) Expected() bool { return true }

// APIError 接口外壳 code != 200
type APIError struct {
	VideoID string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chzzk api call returned %d: %s", e.Code, e.Message)
}

func (e *APIError) Expected() bool { return true }

// AgeRestrictedError 成人内容且当前会话未登录
type AgeRestrictedError struct {
	VideoID string
}

func (e *AgeRestrictedError) Error() string {
	return "Video is age-restricted. Login required."
}

func (e *AgeRestrictedError) Expected() bool { return true }

// MalformedPayloadError 响应缺少必需字段或不是合法的外壳
type MalformedPayloadError struct {
	VideoID string
	Reason  string
}

func (e *MalformedPayloadError) Error() string {
	if e.VideoID == "" {
		return fmt.Sprintf("malformed chzzk response: %s", e.Reason)
	}
	return fmt.Sprintf("malformed chzzk response for video %s: %s", e.VideoID, e.Reason)
}

func (e *MalformedPayloadError) Expected() bool { return true }

// IsExpected 判断错误链上是否有可展示给用户的错误
func IsExpected(err error) bool {
	var expected ExpectedError
	if errors.As(err, &expected) {
		return expected.Expected()
	}
	return false
}
