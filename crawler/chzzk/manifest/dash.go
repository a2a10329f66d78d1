// manifest 包负责拉取 neonplayer 播放清单（DASH MPD）并转换为格式列表
package manifest

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"

	"chzzk-vod-resolver-go/crawler/chzzk/model"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const ProtocolDASH = "http_dash_segments"

type mpd struct {
	XMLName  xml.Name `xml:"MPD"`
	BaseURLs []string `xml:"BaseURL"`
	Periods  []period `xml:"Period"`
}

type period struct {
	ID             string          `xml:"id,attr"`
	BaseURLs       []string        `xml:"BaseURL"`
	AdaptationSets []adaptationSet `xml:"AdaptationSet"`
}

type adaptationSet struct {
	MimeType        string           `xml:"mimeType,attr"`
	ContentType     string           `xml:"contentType,attr"`
	Codecs          string           `xml:"codecs,attr"`
	Lang            string           `xml:"lang,attr"`
	Width           int              `xml:"width,attr"`
	Height          int              `xml:"height,attr"`
	FrameRate       string           `xml:"frameRate,attr"`
	BaseURLs        []string         `xml:"BaseURL"`
	Representations []representation `xml:"Representation"`
}

type representation struct {
	ID        string   `xml:"id,attr"`
	Bandwidth int64    `xml:"bandwidth,attr"`
	MimeType  string   `xml:"mimeType,attr"`
	Codecs    string   `xml:"codecs,attr"`
	Width     int      `xml:"width,attr"`
	Height    int      `xml:"height,attr"`
	FrameRate string   `xml:"frameRate,attr"`
	BaseURLs  []string `xml:"BaseURL"`
}

// DASHFetcher 默认的播放清单获取实现
type DASHFetcher struct {
	client *resty.Client
}

func NewDASHFetcher(client *resty.Client) *DASHFetcher {
	return &DASHFetcher{client: client}
}

// Fetch 请求 manifestURL?query 并解析出格式列表
func (f *DASHFetcher) Fetch(ctx context.Context, manifestURL string, query url.Values) ([]model.Format, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/dash+xml").
		SetQueryParamsFromValues(query).
		Get(manifestURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errors.Errorf("manifest request returned HTTP %d", resp.StatusCode())
	}
	fullURL := manifestURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	return ParseMPD(resp.Body(), fullURL)
}

// ParseMPD 每个 Representation 生成一个格式，保持文档顺序
func ParseMPD(body []byte, manifestURL string) ([]model.Format, error) {
	var doc mpd
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse MPD")
	}

	base, err := applyBaseURL(manifestURL, doc.BaseURLs)
	if err != nil {
		return nil, err
	}

	formats := []model.Format{}
	for _, p := range doc.Periods {
		periodBase, err := applyBaseURL(base, p.BaseURLs)
		if err != nil {
			return nil, err
		}
		for _, as := range p.AdaptationSets {
			setBase, err := applyBaseURL(periodBase, as.BaseURLs)
			if err != nil {
				return nil, err
			}
			for _, rep := range as.Representations {
				f, err := buildFormat(setBase, manifestURL, as, rep)
				if err != nil {
					return nil, err
				}
				formats = append(formats, f)
			}
		}
	}
	return formats, nil
}

func buildFormat(base, manifestURL string, as adaptationSet, rep representation) (model.Format, error) {
	repURL := manifestURL
	if len(rep.BaseURLs) > 0 {
		resolved, err := applyBaseURL(base, rep.BaseURLs)
		if err != nil {
			return model.Format{}, err
		}
		repURL = resolved
	}

	mimeType := lo.Ternary(rep.MimeType != "", rep.MimeType, as.MimeType)
	codecs := lo.Ternary(rep.Codecs != "", rep.Codecs, as.Codecs)
	frameRate := lo.Ternary(rep.FrameRate != "", rep.FrameRate, as.FrameRate)

	f := model.Format{
		FormatID:    rep.ID,
		URL:         repURL,
		ManifestURL: manifestURL,
		Ext:         extFromMime(mimeType),
		Protocol:    ProtocolDASH,
		MimeType:    mimeType,
		Width:       lo.Ternary(rep.Width > 0, rep.Width, as.Width),
		Height:      lo.Ternary(rep.Height > 0, rep.Height, as.Height),
		FPS:         parseFrameRate(frameRate),
		TBR:         float64(rep.Bandwidth) / 1000,
		Language:    as.Lang,
	}

	switch contentType(as, mimeType) {
	case "video":
		f.VCodec = codecs
		f.ACodec = "none"
	case "audio":
		f.VCodec = "none"
		f.ACodec = codecs
	default:
		f.VCodec = codecs
	}
	return f, nil
}

func contentType(as adaptationSet, mimeType string) string {
	if as.ContentType != "" {
		return as.ContentType
	}
	if i := strings.Index(mimeType, "/"); i > 0 {
		return mimeType[:i]
	}
	return ""
}

// applyBaseURL 只取第一个 BaseURL，相对地址按父级解析
func applyBaseURL(parent string, baseURLs []string) (string, error) {
	if len(baseURLs) == 0 {
		return parent, nil
	}
	target := strings.TrimSpace(baseURLs[0])
	if target == "" {
		return parent, nil
	}
	t, err := url.Parse(target)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse BaseURL")
	}
	if t.IsAbs() {
		return target, nil
	}
	b, err := url.Parse(parent)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse base URL")
	}
	return b.ResolveReference(t).String(), nil
}

func extFromMime(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return "mp4"
	case "audio/mp4":
		return "m4a"
	case "video/webm":
		return "webm"
	case "audio/webm":
		return "weba"
	case "video/mp2t":
		return "ts"
	}
	return "mp4"
}

// parseFrameRate 支持 "30" 和 "30000/1001"
func parseFrameRate(s string) float64 {
	if s == "" {
		return 0
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
