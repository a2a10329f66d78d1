package util

import (
	"github.com/go-resty/resty/v2"
)

const (
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	Origin    = "https://chzzk.naver.com"
	Referer   = "https://chzzk.naver.com/"
)

// SetHeaders 模拟浏览器请求头，cookie 为空时不发送
func SetHeaders(client *resty.Client, cookies string) {
	client.SetHeaders(map[string]string{
		"User-Agent": UserAgent,
		"Origin":     Origin,
		"Referer":    Referer,
	})
	if cookies != "" {
		client.SetHeader("Cookie", cookies)
	}
}
