package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chzzk-vod-resolver-go/crawler/chzzk/config"
	"chzzk-vod-resolver-go/crawler/chzzk/core"
	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/crawler/chzzk/util"
	"chzzk-vod-resolver-go/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ClientOptions 传输层参数
type ClientOptions struct {
	Cookies    string
	Timeout    time.Duration
	MaxRetries int
}

// NewHTTPClient 创建共享的 resty 客户端
// 网络错误和 5xx 由传输层重试，业务错误码不重试
func NewHTTPClient(opt ClientOptions) *resty.Client {
	if opt.Timeout <= 0 {
		opt.Timeout = config.RequestTimeout
	}
	client := resty.New()
	client.SetTimeout(opt.Timeout)
	client.SetRetryCount(opt.MaxRetries)
	client.SetRetryWaitTime(config.RetryBaseDelay)
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err == nil && resp != nil && resp.StatusCode() >= 500
	})
	util.SetHeaders(client, opt.Cookies)
	return client
}

// HTTPStatusError 响应既不是外壳也不是 2xx
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d from %s", e.StatusCode, e.URL)
}

// APIClient api.chzzk.naver.com 客户端
type APIClient struct {
	HTTPClient *resty.Client
	BaseURL    string
	log        logrus.FieldLogger
}

// NewAPIClient 创建新的 API 客户端
func NewAPIClient(client *resty.Client, baseURL string, log logrus.FieldLogger) *APIClient {
	if baseURL == "" {
		baseURL = config.APIBase
	}
	return &APIClient{HTTPClient: client, BaseURL: baseURL, log: logger.OrDiscard(log)}
}

// Call 请求 BaseURL+path 并解开外壳
// code == 200 时原样返回 content，否则返回 *core.APIError
func (c *APIClient) Call(ctx context.Context, path, videoID string) (json.RawMessage, error) {
	apiURL := c.BaseURL + path
	logger.WithVideo(c.log, videoID).Debugf("请求 API: %s", apiURL)

	resp, err := c.HTTPClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(apiURL)
	if err != nil {
		return nil, err
	}

	env, ok := parseEnvelope(resp.Body())
	if !ok {
		if resp.IsError() {
			return nil, &HTTPStatusError{URL: apiURL, StatusCode: resp.StatusCode()}
		}
		return nil, &core.MalformedPayloadError{VideoID: videoID, Reason: "response is not an api envelope"}
	}

	if env.Code != 200 {
		logger.WithVideo(c.log, videoID).Debugf("API 返回错误码: %d, 消息: %s", env.Code, env.Message)
		return nil, &core.APIError{VideoID: videoID, Code: env.Code, Message: env.Message}
	}
	return env.Content, nil
}

// parseEnvelope 只认带整数 code 的 JSON 对象
func parseEnvelope(body []byte) (*model.APIEnvelope, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	root := gjson.ParseBytes(body)
	code := root.Get("code")
	if !root.IsObject() || code.Type != gjson.Number {
		return nil, false
	}
	env := &model.APIEnvelope{
		Code:    int(code.Int()),
		Message: root.Get("message").String(),
	}
	if content := root.Get("content"); content.Exists() {
		env.Content = json.RawMessage(content.Raw)
	}
	return env, true
}

// GetVod 获取单个 VOD 的元数据
func (c *APIClient) GetVod(ctx context.Context, videoID string) (*model.VodMetadata, error) {
	content, err := c.Call(ctx, config.VideoRoute+videoID, videoID)
	if err != nil {
		return nil, err
	}
	return core.DecodeMetadata(videoID, content, c.log)
}
