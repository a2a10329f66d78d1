package store

import (
	"encoding/json"
	"io"
	"os"

	"chzzk-vod-resolver-go/crawler/chzzk/model"

	"github.com/pkg/errors"
)

// WriteJSON 输出缩进 JSON，单个结果输出对象，多个输出数组
func WriteJSON(w io.Writer, results []*model.Descriptor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	var v interface{} = results
	if len(results) == 1 {
		v = results[0]
	}
	return errors.Wrap(enc.Encode(v), "写入 JSON 失败")
}

// WriteJSONFile 写入 JSON 文件
func WriteJSONFile(results []*model.Descriptor, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "创建文件失败")
	}
	defer file.Close()
	return WriteJSON(file, results)
}
