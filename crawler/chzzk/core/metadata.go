package core

import (
	"encoding/json"

	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/logger"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DecodeMetadata 把 content 解析为 VodMetadata
// channel 对象是必需的，其余字段缺失或类型不符时保持 nil，不影响整体解析
func DecodeMetadata(videoID string, content json.RawMessage, log logrus.FieldLogger) (*model.VodMetadata, error) {
	if !gjson.ValidBytes(content) {
		return nil, &MalformedPayloadError{VideoID: videoID, Reason: "content is not valid JSON"}
	}
	root := gjson.ParseBytes(content)
	if !root.IsObject() {
		return nil, &MalformedPayloadError{VideoID: videoID, Reason: "content is not an object"}
	}
	if !root.Get("channel").IsObject() {
		return nil, &MalformedPayloadError{VideoID: videoID, Reason: "missing channel object"}
	}

	f := fields{root: root, log: logger.WithVideo(log, videoID)}

	return &model.VodMetadata{
		VideoNo:           f.num("videoNo"),
		VideoID:           f.str("videoId"),
		InKey:             f.str("inKey"),
		VideoTitle:        f.str("videoTitle"),
		ThumbnailImageURL: f.str("thumbnailImageUrl"),
		PublishDateAt:     f.num("publishDateAt"),
		Duration:          f.num("duration"),
		ReadCount:         f.num("readCount"),
		Adult:             f.flag("adult"),
		Channel: &model.Channel{
			ChannelName: f.str("channel.channelName"),
			ChannelID:   f.str("channel.channelId"),
		},
	}, nil
}

// fields 按类型宽松读取可选字段
type fields struct {
	root gjson.Result
	log  logrus.FieldLogger
}

func (f fields) get(path string, want gjson.Type) (gjson.Result, bool) {
	v := f.root.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return v, false
	}
	if v.Type != want {
		f.log.Debugf("字段 %s 类型为 %s，忽略", path, v.Type)
		return v, false
	}
	return v, true
}

func (f fields) num(path string) *int64 {
	v, ok := f.get(path, gjson.Number)
	if !ok {
		return nil
	}
	n := v.Int()
	return &n
}

func (f fields) str(path string) *string {
	v, ok := f.get(path, gjson.String)
	if !ok {
		return nil
	}
	s := v.String()
	return &s
}

func (f fields) flag(path string) *bool {
	v := f.root.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if !v.IsBool() {
		f.log.Debugf("字段 %s 类型为 %s，忽略", path, v.Type)
		return nil
	}
	b := v.Bool()
	return &b
}

// CheckAgeRestriction 未登录时成人内容的 videoId 为空
func CheckAgeRestriction(videoID string, meta *model.VodMetadata) error {
	if meta.IsAdult() && meta.PlaybackVideoID() == "" {
		return &AgeRestrictedError{VideoID: videoID}
	}
	return nil
}

// AgeLimit 成人内容为 18，否则为 0
func AgeLimit(meta *model.VodMetadata) int {
	if meta.IsAdult() {
		return 18
	}
	return 0
}
