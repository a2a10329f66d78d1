// core 包实现 chzzk VOD 地址到标准化结果的解析流程
package core

import (
	"context"
	"encoding/json"
	"net/url"

	"chzzk-vod-resolver-go/crawler/chzzk/config"
	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/logger"

	"github.com/sirupsen/logrus"
)

// MetadataAPI 调用 api.chzzk.naver.com 并解开外壳
type MetadataAPI interface {
	Call(ctx context.Context, path, videoID string) (json.RawMessage, error)
}

// ManifestFetcher 拉取并解析播放清单
type ManifestFetcher interface {
	Fetch(ctx context.Context, manifestURL string, query url.Values) ([]model.Format, error)
}

// Resolver 无状态，可被多个 goroutine 同时使用
type Resolver struct {
	api       MetadataAPI
	manifests ManifestFetcher
	endpoints config.Endpoints
	log       logrus.FieldLogger
}

func NewResolver(api MetadataAPI, manifests ManifestFetcher, ep config.Endpoints, log logrus.FieldLogger) *Resolver {
	return &Resolver{api: api, manifests: manifests, endpoints: ep, log: logger.OrDiscard(log)}
}

// Resolve URL → id → 元数据 → 年龄限制检查 → 播放清单 → 标准化结果
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*model.Descriptor, error) {
	videoID, err := MatchVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return r.ResolveID(ctx, videoID)
}

// ResolveID 跳过 URL 匹配，videoID 必须是已校验过的数字 id
func (r *Resolver) ResolveID(ctx context.Context, videoID string) (*model.Descriptor, error) {
	log := logger.WithVideo(r.log, videoID)

	content, err := r.api.Call(ctx, config.VideoRoute+videoID, videoID)
	if err != nil {
		return nil, err
	}
	meta, err := DecodeMetadata(videoID, content, r.log)
	if err != nil {
		return nil, err
	}
	if err := CheckAgeRestriction(videoID, meta); err != nil {
		log.Info("成人内容需要登录，停止解析")
		return nil, err
	}

	manifestURL, query, err := PlaybackRequest(r.endpoints, videoID, meta)
	if err != nil {
		return nil, err
	}
	log.Debugf("请求播放清单: %s", manifestURL)
	formats, err := r.manifests.Fetch(ctx, manifestURL, query)
	if err != nil {
		log.Warnf("播放清单获取失败: %v", err)
		return nil, err
	}

	d := BuildDescriptor(videoID, meta, formats)
	log.Infof("解析完成: %s (%d 个格式)", d.TitleOrEmpty(), len(d.Formats))
	return d, nil
}
