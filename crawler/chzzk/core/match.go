package core

import (
	"fmt"
	"regexp"
	"strings"
)

// 正则表达式：匹配 VOD 地址
var (
	validURL = regexp.MustCompile(`^https?://chzzk\.naver\.com/video/(\d+)`)
	bareID   = regexp.MustCompile(`^\d+$`)
)

const urlTemplate = "https://chzzk.naver.com/video/%s"

// Suitable 判断 URL 是否由本解析器处理
func Suitable(rawURL string) bool {
	return validURL.MatchString(rawURL)
}

// MatchVideoID 从 URL 中提取数字 id，原样返回
func MatchVideoID(rawURL string) (string, error) {
	m := validURL.FindStringSubmatch(rawURL)
	if m == nil {
		return "", &NoMatchError{URL: rawURL}
	}
	return m[1], nil
}

// VideoURL 由 id 拼出页面地址
func VideoURL(videoID string) string {
	return fmt.Sprintf(urlTemplate, videoID)
}

// NormalizeRef 接受完整 URL 或纯数字 id，统一经过 URL 匹配取出 id
func NormalizeRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if bareID.MatchString(ref) {
		ref = VideoURL(ref)
	}
	return MatchVideoID(ref)
}
