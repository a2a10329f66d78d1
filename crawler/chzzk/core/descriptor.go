package core

import (
	"net/url"
	"time"

	"chzzk-vod-resolver-go/crawler/chzzk/config"
	"chzzk-vod-resolver-go/crawler/chzzk/model"
)

// PlaybackRequest 构造播放清单请求地址和查询参数
func PlaybackRequest(ep config.Endpoints, videoID string, meta *model.VodMetadata) (string, url.Values, error) {
	playbackID := meta.PlaybackVideoID()
	if playbackID == "" {
		return "", nil, &MalformedPayloadError{VideoID: videoID, Reason: "missing videoId"}
	}
	key := meta.PlaybackKey()
	if key == "" {
		return "", nil, &MalformedPayloadError{VideoID: videoID, Reason: "missing inKey"}
	}

	query := url.Values{}
	query.Set("key", key)
	query.Set("sid", ep.SID)
	query.Set("env", ep.Env)
	query.Set("lc", ep.Locale)
	query.Set("cpl", ep.Locale)
	return ep.PlaybackBase + url.PathEscape(playbackID), query, nil
}

// BuildDescriptor 组装标准化结果，formats 为空时原样透传
func BuildDescriptor(videoID string, meta *model.VodMetadata, formats []model.Format) *model.Descriptor {
	if formats == nil {
		formats = []model.Format{}
	}
	d := &model.Descriptor{
		ID:         videoID,
		Title:      meta.VideoTitle,
		Formats:    formats,
		Thumbnail:  meta.ThumbnailImageURL,
		Duration:   meta.Duration,
		ViewCount:  meta.ReadCount,
		AgeLimit:   AgeLimit(meta),
		WebpageURL: VideoURL(videoID),
	}
	if meta.PublishDateAt != nil {
		ts := *meta.PublishDateAt / 1000
		date := time.Unix(ts, 0).UTC().Format("20060102")
		d.Timestamp = &ts
		d.UploadDate = &date
	}
	if meta.Channel != nil {
		d.Uploader = meta.Channel.ChannelName
		d.UploaderID = meta.Channel.ChannelID
	}
	return d
}
