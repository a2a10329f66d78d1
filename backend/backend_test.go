package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"chzzk-vod-resolver-go/config"
	"chzzk-vod-resolver-go/crawler/chzzk/core"
	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/database"
	"chzzk-vod-resolver-go/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger("", "error", 0, 0, 0)
	os.Exit(m.Run())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		typ      string
		status   int
		expected bool
	}{
		{"no match", &core.NoMatchError{URL: "x"}, ErrorTypeNoMatch, http.StatusBadRequest, true},
		{"api 404", &core.APIError{Code: 404}, ErrorTypeAPIError, http.StatusNotFound, true},
		{"api 500", &core.APIError{Code: 500}, ErrorTypeAPIError, http.StatusBadGateway, true},
		{"age", &core.AgeRestrictedError{VideoID: "1"}, ErrorTypeAgeRestricted, http.StatusForbidden, true},
		{"malformed", &core.MalformedPayloadError{Reason: "r"}, ErrorTypeMalformedPayload, http.StatusBadGateway, true},
		{"wrapped api", fmt.Errorf("ctx: %w", &core.APIError{Code: 404}), ErrorTypeAPIError, http.StatusNotFound, true},
		{"canceled", context.Canceled, ErrorTypeNetworkError, http.StatusGatewayTimeout, false},
		{"network", errors.New("dial tcp: refused"), ErrorTypeNetworkError, http.StatusBadGateway, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := Classify(tt.err)
			assert.Equal(t, tt.typ, re.Type)
			assert.Equal(t, tt.status, re.HTTPStatus)
			assert.Equal(t, tt.expected, re.Expected)
			assert.Equal(t, tt.err.Error(), re.Message)
		})
	}
}

func TestGetErrorTypeName(t *testing.T) {
	assert.Equal(t, "成人内容需要登录", GetErrorTypeName(ErrorTypeAgeRestricted))
	assert.Equal(t, "unknown", GetErrorTypeName("unknown"))
}

const testMPD = `<MPD><Period><AdaptationSet mimeType="video/mp4">
<Representation id="720p" bandwidth="2500000" width="1280" height="720"><BaseURL>https://cdn.example.com/720.mp4</BaseURL></Representation>
</AdaptationSet></Period></MPD>`

func newChzzkServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/service/v2/videos/1808":
			_, _ = w.Write([]byte(`{"code":200,"message":null,"content":{
				"videoNo":1808,"videoId":"V1808","inKey":"K","videoTitle":"title",
				"publishDateAt":1702992423000,"duration":54,"adult":false,
				"channel":{"channelName":"플러리","channelId":"fe558c6d1b8ef3206ac0bc0419f3f564"}}}`))
		case r.URL.Path == "/service/v2/videos/99":
			_, _ = w.Write([]byte(`{"code":200,"content":{"adult":true,"videoId":null,"channel":{}}}`))
		case strings.HasPrefix(r.URL.Path, "/service/v2/videos/"):
			_, _ = w.Write([]byte(`{"code":404,"message":"Not Found"}`))
		case r.URL.Path == "/playback/V1808":
			if r.URL.Query().Get("key") != "K" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(testMPD))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, srv *httptest.Server) *ResolveService {
	t.Helper()
	cfg := &config.Config{ImageStorageDir: t.TempDir()}
	cfg.Crawler.APIBase = srv.URL
	cfg.Crawler.PlaybackBase = srv.URL + "/playback/"
	cfg.Crawler.NoThumbnail = true
	cfg.Crawler.Workers = 2
	cfg.Crawler.TimeoutSec = 5
	return NewResolveService(cfg, logger.GetLogger())
}

func TestEndpointsFromConfig(t *testing.T) {
	ep := EndpointsFromConfig(nil)
	assert.Equal(t, "https://api.chzzk.naver.com", ep.APIBase)

	cfg := &config.Config{}
	cfg.Crawler.SID = "22099"
	ep = EndpointsFromConfig(cfg)
	assert.Equal(t, "22099", ep.SID)
	assert.Equal(t, "real", ep.Env)
}

func TestResolveService_Resolve(t *testing.T) {
	svc := newTestService(t, newChzzkServer(t))

	d, err := svc.Resolve(context.Background(), "1808")
	require.NoError(t, err)
	assert.Equal(t, "1808", d.ID)
	assert.EqualValues(t, 1702992423, *d.Timestamp)
	require.Len(t, d.Formats, 1)
	assert.Equal(t, "720p", d.Formats[0].FormatID)
	assert.Equal(t, "https://cdn.example.com/720.mp4", d.Formats[0].URL)

	_, err = svc.Resolve(context.Background(), "99")
	assert.Equal(t, ErrorTypeAgeRestricted, Classify(err).Type)

	_, err = svc.Resolve(context.Background(), "5")
	re := Classify(err)
	assert.Equal(t, ErrorTypeAPIError, re.Type)
	assert.Equal(t, http.StatusNotFound, re.HTTPStatus)

	_, err = svc.Resolve(context.Background(), "https://example.com/video/1")
	assert.Equal(t, ErrorTypeNoMatch, Classify(err).Type)
}

func TestResolveService_ResolveAndSave(t *testing.T) {
	require.NoError(t, database.InitDB(":memory:"))
	defer database.CloseDB()

	svc := newTestService(t, newChzzkServer(t))
	_, err := svc.ResolveAndSave(context.Background(), "https://chzzk.naver.com/video/1808")
	require.NoError(t, err)

	saved, err := database.GetVodByID("1808")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "플러리", *saved.Uploader)
	assert.Len(t, saved.Formats, 1)

	_, err = svc.ResolveAndSave(context.Background(), "99")
	require.Error(t, err)
	missing, err := database.GetVodByID("99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestResolveService_ResolveBatch(t *testing.T) {
	svc := newTestService(t, newChzzkServer(t))

	results := svc.ResolveBatch(context.Background(), []string{"1808", "99", "5"})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, ErrorTypeAgeRestricted, Classify(results[1].Err).Type)
	assert.Equal(t, ErrorTypeAPIError, Classify(results[2].Err).Type)
}

func TestResolveService_DownloadThumbnail(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpg"))
	}))
	defer img.Close()

	svc := newTestService(t, newChzzkServer(t))
	d, err := svc.Resolve(context.Background(), "1808")
	require.NoError(t, err)

	localPath, err := svc.DownloadThumbnail(d)
	require.NoError(t, err)
	assert.Empty(t, localPath)

	thumb := img.URL + "/thumb.jpg"
	d.Thumbnail = &thumb
	svc.noThumbnail = false
	svc.AttachThumbnails([]*model.Descriptor{d})
	assert.FileExists(t, d.LocalThumbnail)
}
