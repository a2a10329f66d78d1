package util

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// 正则表达式：匹配 VOD 数字 id
var videoIDPattern = regexp.MustCompile(`^\d+$`)

// IsValidVideoID 检查 id 是否为纯数字
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ReadVideoRefsFromFile 从文件读取 URL 或 id 列表，忽略空行和 # 注释
func ReadVideoRefsFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var refs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			refs = append(refs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}
