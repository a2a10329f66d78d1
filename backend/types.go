package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chzzk-vod-resolver-go/crawler/chzzk/core"
)

// 错误级别常量
const (
	ErrorLevelHigh   = "high"   // 影响本次解析
	ErrorLevelMedium = "medium" // 用户可处理的问题
)

// 错误类型分类
const (
	ErrorTypeNoMatch          = "no_match"
	ErrorTypeAPIError         = "api_error"
	ErrorTypeAgeRestricted    = "age_restricted"
	ErrorTypeMalformedPayload = "malformed_payload"
	ErrorTypeNetworkError     = "network_error"
	ErrorTypeDatabaseError    = "database_error"
)

// ResolveError 返回给前端的错误
type ResolveError struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Level      string `json:"level"`
	VideoID    string `json:"video_id,omitempty"`
	APICode    int    `json:"api_code,omitempty"`
	Expected   bool   `json:"expected"`
	Retryable  bool   `json:"retryable"`
	Timestamp  int64  `json:"timestamp"`
	HTTPStatus int    `json:"-"`
}

func (e *ResolveError) Error() string {
	return e.Message
}

// Classify 按错误种类映射为 ResolveError，不做字符串匹配
func Classify(err error) *ResolveError {
	re := &ResolveError{
		Message:   err.Error(),
		Timestamp: time.Now().Unix(),
		Expected:  core.IsExpected(err),
	}

	var (
		noMatch   *core.NoMatchError
		apiErr    *core.APIError
		ageErr    *core.AgeRestrictedError
		malformed *core.MalformedPayloadError
	)
	switch {
	case errors.As(err, &noMatch):
		re.Type, re.Level, re.HTTPStatus = ErrorTypeNoMatch, ErrorLevelMedium, http.StatusBadRequest
	case errors.As(err, &apiErr):
		re.Type, re.Level = ErrorTypeAPIError, ErrorLevelHigh
		re.VideoID, re.APICode = apiErr.VideoID, apiErr.Code
		re.HTTPStatus = http.StatusBadGateway
		if apiErr.Code == http.StatusNotFound {
			re.HTTPStatus = http.StatusNotFound
		}
	case errors.As(err, &ageErr):
		re.Type, re.Level, re.HTTPStatus = ErrorTypeAgeRestricted, ErrorLevelMedium, http.StatusForbidden
		re.VideoID = ageErr.VideoID
	case errors.As(err, &malformed):
		re.Type, re.Level, re.HTTPStatus = ErrorTypeMalformedPayload, ErrorLevelHigh, http.StatusBadGateway
		re.VideoID = malformed.VideoID
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		re.Type, re.Level, re.HTTPStatus = ErrorTypeNetworkError, ErrorLevelHigh, http.StatusGatewayTimeout
		re.Retryable = true
	default:
		re.Type, re.Level, re.HTTPStatus = ErrorTypeNetworkError, ErrorLevelHigh, http.StatusBadGateway
		re.Retryable = true
	}
	return re
}

// GetErrorTypeName 获取错误类型中文名称
func GetErrorTypeName(errorType string) string {
	typeNames := map[string]string{
		ErrorTypeNoMatch:          "不支持的地址",
		ErrorTypeAPIError:         "API错误",
		ErrorTypeAgeRestricted:    "成人内容需要登录",
		ErrorTypeMalformedPayload: "响应格式错误",
		ErrorTypeNetworkError:     "网络错误",
		ErrorTypeDatabaseError:    "数据库错误",
	}

	if name, exists := typeNames[errorType]; exists {
		return name
	}
	return errorType
}
