package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chzzk-vod-resolver-go/backend"
	"chzzk-vod-resolver-go/config"
	"chzzk-vod-resolver-go/database"
	"chzzk-vod-resolver-go/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitLogger("", "error", 0, 0, 0)
	os.Exit(m.Run())
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/service/v2/videos/1808":
			_, _ = w.Write([]byte(`{"code":200,"content":{"videoId":"V","inKey":"K","videoTitle":"title",
				"publishDateAt":1702992423000,"channel":{"channelName":"플러리"}}}`))
		case "/service/v2/videos/99":
			_, _ = w.Write([]byte(`{"code":200,"content":{"adult":true,"channel":{}}}`))
		case "/service/v2/videos/7":
			_, _ = w.Write([]byte(`{"code":200,"content":{"videoId":"V"}}`))
		case "/playback/V":
			_, _ = w.Write([]byte(`<MPD><Period><AdaptationSet mimeType="video/mp4">` +
				`<Representation id="1080p" bandwidth="5000000"/></AdaptationSet></Period></MPD>`))
		default:
			_, _ = w.Write([]byte(`{"code":404,"message":"Not Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	require.NoError(t, database.InitDB(":memory:"))
	t.Cleanup(database.CloseDB)

	upstream := newUpstream(t)
	cfg := &config.Config{
		ImageStorageDir:     t.TempDir(),
		AllowedImageDomains: []string{"pstatic.net"},
	}
	cfg.Crawler.APIBase = upstream.URL
	cfg.Crawler.PlaybackBase = upstream.URL + "/playback/"
	cfg.Crawler.NoThumbnail = true
	cfg.Crawler.TimeoutSec = 5

	svc := backend.NewResolveService(cfg, logger.GetLogger())
	return setupRouter(svc, cfg), cfg
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestResolveVideo(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		status int
		typ    string
	}{
		{"ok by url", "/api/resolve?url=https://chzzk.naver.com/video/1808", http.StatusOK, ""},
		{"ok by id", "/api/resolve?url=1808", http.StatusOK, ""},
		{"missing url", "/api/resolve", http.StatusBadRequest, ""},
		{"unsupported url", "/api/resolve?url=https://example.com/x", http.StatusBadRequest, backend.ErrorTypeNoMatch},
		{"age restricted", "/api/resolve?url=99", http.StatusForbidden, backend.ErrorTypeAgeRestricted},
		{"api not found", "/api/resolve?url=5", http.StatusNotFound, backend.ErrorTypeAPIError},
		{"malformed", "/api/resolve?url=7", http.StatusBadGateway, backend.ErrorTypeMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				assert.Equal(t, "1808", body["id"])
				assert.Equal(t, float64(1702992423), body["timestamp"])
				assert.Len(t, body["formats"], 1)
				return
			}
			if tt.typ != "" {
				assert.Equal(t, tt.typ, body["type"])
			}
		})
	}
}

func TestResolveSaveListDelete(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/resolve/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/resolve/1808")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/videos?page=1&pageSize=10")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Videos []database.Vod `json:"videos"`
		Total  int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Videos, 1)
	assert.Equal(t, "title", list.Videos[0].Title)

	w = doRequest(router, http.MethodGet, "/api/videos?page=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/video/1808")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "플러리")

	w = doRequest(router, http.MethodDelete, "/api/video/1808")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodGet, "/api/video/1808")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/video/1808")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeLocalImage(t *testing.T) {
	router, cfg := newTestRouter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ImageStorageDir, "1808"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ImageStorageDir, "1808", "a.jpg"), []byte("jpg"), 0644))

	w := doRequest(router, http.MethodGet, "/local_images/1808/a.jpg")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpg", w.Body.String())

	w = doRequest(router, http.MethodGet, "/local_images/1808/b.jpg")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/local_images/1808/a.txt")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProxyImage_RejectsDomains(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/proxy_image")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/proxy_image?url="+strings.ReplaceAll("https://evil.com/a.jpg", ":", "%3A"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIsAllowedImageDomain(t *testing.T) {
	domains := []string{"pstatic.net", "naver.com"}
	tests := map[string]bool{
		"https://video-phinf.pstatic.net/a.jpg": true,
		"https://pstatic.net/a.jpg":             true,
		"http://NAVER.com/a.jpg":                true,
		"https://evilpstatic.net/a.jpg":         false,
		"https://pstatic.net.evil.com/a.jpg":    false,
		"ftp://pstatic.net/a.jpg":               false,
		"::bad":                                 false,
	}
	for rawURL, want := range tests {
		assert.Equal(t, want, isAllowedImageDomain(rawURL, domains), rawURL)
	}
}
