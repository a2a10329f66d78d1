package model

import (
	"encoding/json"
)

// APIEnvelope 是 api.chzzk.naver.com 统一的响应外壳
// content 只有在 code == 200 时才有效
type APIEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Content json.RawMessage `json:"content"`
}

// Channel 为 VOD 所属频道信息
type Channel struct {
	ChannelName *string `json:"channelName"`
	ChannelID   *string `json:"channelId"`
}

// VodMetadata 对应 /service/v2/videos/{id} 的 content
// 可选字段使用指针，缺失时保持 nil
type VodMetadata struct {
	VideoNo           *int64   `json:"videoNo"`
	VideoID           *string  `json:"videoId"`
	InKey             *string  `json:"inKey"`
	VideoTitle        *string  `json:"videoTitle"`
	ThumbnailImageURL *string  `json:"thumbnailImageUrl"`
	PublishDateAt     *int64   `json:"publishDateAt"`
	Duration          *int64   `json:"duration"`
	ReadCount         *int64   `json:"readCount"`
	Adult             *bool    `json:"adult"`
	Channel           *Channel `json:"channel"`
}

// IsAdult 缺失时视为 false
func (m *VodMetadata) IsAdult() bool {
	return m.Adult != nil && *m.Adult
}

// PlaybackVideoID 缺失时返回空串
func (m *VodMetadata) PlaybackVideoID() string {
	if m.VideoID == nil {
		return ""
	}
	return *m.VideoID
}

// PlaybackKey 缺失时返回空串
func (m *VodMetadata) PlaybackKey() string {
	if m.InKey == nil {
		return ""
	}
	return *m.InKey
}

// Format 单个可播放的流
type Format struct {
	FormatID    string  `json:"format_id"`
	URL         string  `json:"url"`
	ManifestURL string  `json:"manifest_url"`
	Ext         string  `json:"ext"`
	Protocol    string  `json:"protocol"`
	MimeType    string  `json:"mime_type,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	FPS         float64 `json:"fps,omitempty"`
	TBR         float64 `json:"tbr,omitempty"` // kbps
	VCodec      string  `json:"vcodec,omitempty"`
	ACodec      string  `json:"acodec,omitempty"`
	Language    string  `json:"language,omitempty"`
}

// Descriptor 交给下载流程的标准化结果
type Descriptor struct {
	ID         string   `json:"id"`
	Title      *string  `json:"title"`
	Formats    []Format `json:"formats"`
	Thumbnail  *string  `json:"thumbnail"`
	Timestamp  *int64   `json:"timestamp"`
	UploadDate *string  `json:"upload_date"`
	Uploader   *string  `json:"uploader"`
	UploaderID *string  `json:"uploader_id"`
	Duration   *int64   `json:"duration"`
	ViewCount  *int64   `json:"view_count"`
	AgeLimit   int      `json:"age_limit"`
	WebpageURL string   `json:"webpage_url"`

	LocalThumbnail string `json:"local_thumbnail,omitempty"` // 本地缩略图路径
}

// TitleOrEmpty 用于展示和文件名
func (d *Descriptor) TitleOrEmpty() string {
	if d.Title == nil {
		return ""
	}
	return *d.Title
}
