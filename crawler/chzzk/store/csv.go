package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/crawler/chzzk/util"

	"github.com/pkg/errors"
)

var csvHeader = []string{
	"ID", "Title", "Uploader", "UploaderID", "Timestamp", "UploadDate",
	"Duration", "ViewCount", "AgeLimit", "Thumbnail", "LocalThumbnail", "Formats", "WebpageURL",
}

// WriteResultsToFile 写入 CSV，缺失字段留空
func WriteResultsToFile(results []*model.Descriptor, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "创建文件失败")
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "写入标题失败")
	}
	for _, d := range results {
		if err := writer.Write(toRecord(d)); err != nil {
			return errors.Wrapf(err, "写入数据失败: %s", d.ID)
		}
	}

	writer.Flush()
	return writer.Error()
}

func toRecord(d *model.Descriptor) []string {
	return []string{
		d.ID,
		str(d.Title),
		str(d.Uploader),
		str(d.UploaderID),
		num(d.Timestamp),
		str(d.UploadDate),
		num(d.Duration),
		num(d.ViewCount),
		strconv.Itoa(d.AgeLimit),
		str(d.Thumbnail),
		d.LocalThumbnail,
		strconv.Itoa(len(d.Formats)),
		d.WebpageURL,
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

// GenerateOutputFileName 生成输出文件名
func GenerateOutputFileName(d *model.Descriptor) string {
	safeTitle := util.SanitizeFileName(d.TitleOrEmpty())
	if safeTitle == "" {
		return fmt.Sprintf("【%s】.csv", d.ID)
	}
	return fmt.Sprintf("【%s】%s.csv", d.ID, safeTitle)
}
