package store

import (
	"crypto/md5"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"chzzk-vod-resolver-go/crawler/chzzk/config"
	"chzzk-vod-resolver-go/crawler/chzzk/util"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DownloadImage 下载缩略图到 imageDir/videoID/，返回本地路径
func DownloadImage(client *resty.Client, imageURL, videoID, imageDir string, log logrus.FieldLogger) (string, error) {
	videoDir := filepath.Join(imageDir, videoID)
	if err := os.MkdirAll(videoDir, 0755); err != nil {
		return "", errors.Wrap(err, "创建目录失败")
	}

	// 生成唯一文件名
	hash := md5.Sum([]byte(imageURL))
	filename := fmt.Sprintf("%x%s", hash, imageExt(imageURL))
	filePath := filepath.Join(videoDir, filename)

	var body []byte
	err := util.Retry(config.MaxRetries, func() error {
		resp, reqErr := client.R().Get(imageURL)
		if reqErr != nil {
			return reqErr
		}
		if resp.StatusCode() >= 500 {
			return fmt.Errorf("服务器错误: %d", resp.StatusCode())
		}
		if resp.StatusCode() >= 400 {
			return util.PermanentError{Err: fmt.Errorf("客户端错误: %d", resp.StatusCode())}
		}
		body = resp.Body()
		return nil
	}, util.IsRetryable, log)
	if err != nil {
		return "", errors.Wrap(err, "下载失败")
	}

	if err := os.WriteFile(filePath, body, 0644); err != nil {
		return "", errors.Wrap(err, "保存文件失败")
	}
	return filePath, nil
}

// imageExt 从 URL 路径取扩展名，默认 .jpg
func imageExt(imageURL string) string {
	p := imageURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return ".jpg"
}
