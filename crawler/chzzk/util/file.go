package util

import (
	"bufio"
	"os"
	"strings"
)

// LoadCookies 读取 cookie 文件（NID_AUT / NID_SES），多行用 "; " 拼接
func LoadCookies(cookieFile string) string {
	if cookieFile == "" {
		return ""
	}
	file, err := os.Open(cookieFile)
	if err != nil {
		return ""
	}
	defer file.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			sb.WriteString(line + "; ")
		}
	}
	return strings.TrimSuffix(sb.String(), "; ")
}

func CreateDirIfNotExist(dir string) error {
	return os.MkdirAll(dir, 0755)
}
