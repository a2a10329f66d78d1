package backend

import (
	"context"
	"net/http"
	"time"

	"chzzk-vod-resolver-go/config"
	chzzkconfig "chzzk-vod-resolver-go/crawler/chzzk/config"
	"chzzk-vod-resolver-go/crawler/chzzk/core"
	"chzzk-vod-resolver-go/crawler/chzzk/fetch"
	"chzzk-vod-resolver-go/crawler/chzzk/manifest"
	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/crawler/chzzk/store"
	"chzzk-vod-resolver-go/crawler/chzzk/util"
	"chzzk-vod-resolver-go/database"
	"chzzk-vod-resolver-go/logger"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ResolveService 解析 + 入库 + 缩略图下载
type ResolveService struct {
	resolver    *core.Resolver
	imageClient *resty.Client
	imageDir    string
	noThumbnail bool
	pacing      fetch.Pacing
	workers     int
	log         logrus.FieldLogger
}

// EndpointsFromConfig 配置中缺省的项使用线上默认值
func EndpointsFromConfig(cfg *config.Config) chzzkconfig.Endpoints {
	ep := chzzkconfig.DefaultEndpoints()
	if cfg == nil {
		return ep
	}
	if cfg.Crawler.APIBase != "" {
		ep.APIBase = cfg.Crawler.APIBase
	}
	if cfg.Crawler.PlaybackBase != "" {
		ep.PlaybackBase = cfg.Crawler.PlaybackBase
	}
	if cfg.Crawler.SID != "" {
		ep.SID = cfg.Crawler.SID
	}
	if cfg.Crawler.Env != "" {
		ep.Env = cfg.Crawler.Env
	}
	if cfg.Crawler.Locale != "" {
		ep.Locale = cfg.Crawler.Locale
	}
	return ep
}

func NewResolveService(cfg *config.Config, log logrus.FieldLogger) *ResolveService {
	opt := fetch.ClientOptions{
		Cookies:    util.LoadCookies(cfg.Crawler.CookieFile),
		Timeout:    time.Duration(cfg.Crawler.TimeoutSec) * time.Second,
		MaxRetries: cfg.Crawler.MaxTryCount,
	}
	if opt.Cookies != "" {
		log.Info("已加载 cookie，成人内容可用")
	}

	httpClient := fetch.NewHTTPClient(opt)
	ep := EndpointsFromConfig(cfg)
	api := fetch.NewAPIClient(httpClient, ep.APIBase, log)
	resolver := core.NewResolver(api, manifest.NewDASHFetcher(httpClient), ep, log)

	// 缩略图由 util.Retry 重试，传输层不再重试
	imageClient := fetch.NewHTTPClient(fetch.ClientOptions{Timeout: opt.Timeout})

	return &ResolveService{
		resolver:    resolver,
		imageClient: imageClient,
		imageDir:    cfg.ImageStorageDir,
		noThumbnail: cfg.Crawler.NoThumbnail,
		pacing: fetch.Pacing{
			Base:   time.Duration(cfg.Crawler.DelayBaseMs) * time.Millisecond,
			Jitter: time.Duration(cfg.Crawler.DelayJitterMs) * time.Millisecond,
		},
		workers: cfg.Crawler.Workers,
		log:     log,
	}
}

// Resolve 只解析，不写库
func (s *ResolveService) Resolve(ctx context.Context, ref string) (*model.Descriptor, error) {
	videoID, err := core.NormalizeRef(ref)
	if err != nil {
		return nil, err
	}
	return s.resolver.ResolveID(ctx, videoID)
}

// ResolveAndSave 解析后写入数据库，缩略图失败不影响结果
func (s *ResolveService) ResolveAndSave(ctx context.Context, ref string) (*model.Descriptor, error) {
	d, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	s.attachThumbnail(d)

	if err := database.SaveVod(d); err != nil {
		return nil, &ResolveError{
			Message:    errors.Wrap(err, "保存解析结果失败").Error(),
			Type:       ErrorTypeDatabaseError,
			Level:      ErrorLevelHigh,
			VideoID:    d.ID,
			Timestamp:  time.Now().Unix(),
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	logger.WithVideo(s.log, d.ID).Info("解析结果已保存")
	return d, nil
}

// ResolveBatch 并发解析多个 URL/id，按输入顺序返回
func (s *ResolveService) ResolveBatch(ctx context.Context, ids []string) []fetch.Result {
	return fetch.ResolveAll(ctx, s.resolver, ids, s.workers, s.pacing, s.log)
}

// DownloadThumbnail 下载缩略图，返回本地路径
func (s *ResolveService) DownloadThumbnail(d *model.Descriptor) (string, error) {
	if d.Thumbnail == nil || *d.Thumbnail == "" {
		return "", nil
	}
	return store.DownloadImage(s.imageClient, *d.Thumbnail, d.ID, s.imageDir, s.log)
}

func (s *ResolveService) attachThumbnail(d *model.Descriptor) {
	if s.noThumbnail {
		return
	}
	localPath, err := s.DownloadThumbnail(d)
	if err != nil {
		logger.WithVideo(s.log, d.ID).Warnf("⚠️ 缩略图下载失败: %v", err)
		return
	}
	d.LocalThumbnail = localPath
}

// AttachThumbnails 批量模式下补充缩略图
func (s *ResolveService) AttachThumbnails(ds []*model.Descriptor) {
	for _, d := range ds {
		s.attachThumbnail(d)
	}
}
