package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"chzzk-vod-resolver-go/backend"
	"chzzk-vod-resolver-go/config"
	"chzzk-vod-resolver-go/crawler/chzzk/util"
	"chzzk-vod-resolver-go/database"
	"chzzk-vod-resolver-go/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
)

func main() {
	// 初始化配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger.InitLogger(
		cfg.Logging.LogFile,
		cfg.Logging.LogLevel,
		cfg.Logging.MaxSizeMB,
		cfg.Logging.MaxBackups,
		cfg.Logging.MaxAgeDays,
	)
	log := logger.GetLogger()

	// 初始化数据库
	if err := database.InitDB(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	svc := backend.NewResolveService(cfg, log)
	router := setupRouter(svc, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.DefaultPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 信号捕获，优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Printf("收到退出信号，正在优雅关闭服务器...")
		ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelTimeout()
		if err := server.Shutdown(ctxTimeout); err != nil {
			log.Fatalf("优雅关闭服务器失败: %v", err)
		}
		log.Printf("服务器已优雅退出")
	}()

	log.Printf("Starting server on port %d", cfg.DefaultPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

type handlers struct {
	svc         *backend.ResolveService
	cfg         *config.Config
	proxyClient *resty.Client
}

func setupRouter(svc *backend.ResolveService, cfg *config.Config) *gin.Engine {
	h := &handlers{
		svc:         svc,
		cfg:         cfg,
		proxyClient: resty.New().SetTimeout(10 * time.Second),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/resolve", h.resolveVideo)
		api.POST("/resolve/:id", h.resolveAndSave)
		api.GET("/videos", h.getVideos)
		api.GET("/video/:id", h.getVideoDetails)
		api.DELETE("/video/:id", h.deleteVideo)
	}

	router.GET("/local_images/*filename", h.serveLocalImage)
	router.GET("/proxy_image", h.proxyImage)

	router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return router
}

// writeError 按错误种类返回状态码
func writeError(c *gin.Context, err error) {
	re, ok := err.(*backend.ResolveError)
	if !ok {
		re = backend.Classify(err)
	}
	if re.Expected {
		logger.GetLogger().Infof("解析失败（预期内）: %v", err)
	} else {
		logger.GetLogger().Errorf("解析失败: %v", err)
	}
	c.JSON(re.HTTPStatus, gin.H{
		"error":     re.Message,
		"type":      re.Type,
		"type_name": backend.GetErrorTypeName(re.Type),
		"level":     re.Level,
		"video_id":  re.VideoID,
		"api_code":  re.APICode,
		"expected":  re.Expected,
	})
}

// 只解析不保存，url 可以是完整地址或数字 id
func (h *handlers) resolveVideo(c *gin.Context) {
	ref := c.Query("url")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	d, err := h.svc.Resolve(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// 解析并保存
func (h *handlers) resolveAndSave(c *gin.Context) {
	id := c.Param("id")
	if !util.IsValidVideoID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return
	}

	logger.GetLogger().Infof("收到解析请求: id=%s", id)
	d, err := h.svc.ResolveAndSave(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// 获取已保存的视频列表
func (h *handlers) getVideos(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pageSize parameter"})
		return
	}
	search := c.DefaultQuery("search", "")

	vods, total, err := database.GetVodsPaginated(page, pageSize, search)
	if err != nil {
		logger.GetLogger().Errorf("获取视频列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get videos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos":    vods,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// 获取视频详情
func (h *handlers) getVideoDetails(c *gin.Context) {
	id := c.Param("id")
	if !util.IsValidVideoID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return
	}

	d, err := database.GetVodByID(id)
	if err != nil {
		logger.GetLogger().Errorf("获取视频详情失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get video details"})
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) deleteVideo(c *gin.Context) {
	id := c.Param("id")
	if !util.IsValidVideoID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return
	}

	deleted, err := database.DeleteVod(id)
	if err != nil {
		logger.GetLogger().Errorf("删除视频失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete video"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// 本地缩略图服务
func (h *handlers) serveLocalImage(c *gin.Context) {
	filename := c.Param("filename")

	filename = strings.ReplaceAll(filename, `\`, `/`)
	filename = strings.TrimPrefix(filename, "/")

	// 防止路径遍历
	if strings.Contains(filename, "..") || strings.Contains(filename, "//") {
		c.String(http.StatusBadRequest, "无效的文件名")
		return
	}
	if !isImageFile(filename) {
		c.String(http.StatusForbidden, "不支持的图像类型")
		return
	}

	imagePath := filepath.Join(h.cfg.ImageStorageDir, filename)
	if _, err := os.Stat(imagePath); os.IsNotExist(err) {
		c.String(http.StatusNotFound, "图片不存在")
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000")
	c.File(imagePath)
}

func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// 远程缩略图代理
func (h *handlers) proxyImage(c *gin.Context) {
	imageURL := c.Query("url")
	if imageURL == "" {
		c.String(http.StatusBadRequest, "Missing image URL")
		return
	}
	if !isAllowedImageDomain(imageURL, h.cfg.AllowedImageDomains) {
		c.String(http.StatusForbidden, "Image domain not allowed")
		return
	}

	resp, err := h.proxyClient.R().
		SetContext(c.Request.Context()).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", util.UserAgent).
		SetHeader("Referer", util.Referer).
		Get(imageURL)
	if err != nil {
		logger.GetLogger().Warnf("Proxy image fetch failed: %v", err)
		c.String(http.StatusBadGateway, "Failed to fetch image")
		return
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		c.String(mapHTTPStatus(resp.StatusCode()), "Image server error: "+resp.Status())
		return
	}

	contentType := resp.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.String(http.StatusUnsupportedMediaType, "Not an image")
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		logger.GetLogger().Warnf("Error streaming image: %v", err)
	}
}

func mapHTTPStatus(statusCode int) int {
	if statusCode >= 400 && statusCode < 500 {
		return http.StatusBadRequest
	}
	if statusCode >= 500 {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// isAllowedImageDomain 按主机名后缀匹配
func isAllowedImageDomain(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return lo.ContainsBy(domains, func(domain string) bool {
		domain = strings.ToLower(domain)
		return host == domain || strings.HasSuffix(host, "."+domain)
	})
}
