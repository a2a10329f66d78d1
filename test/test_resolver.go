package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"chzzk-vod-resolver-go/backend"
	"chzzk-vod-resolver-go/config"
	"chzzk-vod-resolver-go/database"
	"chzzk-vod-resolver-go/logger"
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

	// 检查命令行参数
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run test/test_resolver.go <url|id>")
		fmt.Println("Example: go run test/test_resolver.go https://chzzk.naver.com/video/1808")
		os.Exit(1)
	}

	ref := os.Args[1]
	log.Infof("开始测试线上解析，目标回放: %s", ref)

	// 初始化数据库
	log.Infof("初始化数据库: %s", cfg.DatabasePath)
	if err := database.InitDB(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc := backend.NewResolveService(cfg, log)

	startTime := time.Now()
	d, err := svc.ResolveAndSave(ctx, ref)
	if err != nil {
		re := backend.Classify(err)
		log.Errorf("解析失败 [%s]: %v", backend.GetErrorTypeName(re.Type), err)
		os.Exit(1)
	}

	log.Infof("解析完成，耗时: %v", time.Since(startTime))
	log.Infof("标题: %s, 格式数: %d, 年龄限制: %d", d.TitleOrEmpty(), len(d.Formats), d.AgeLimit)
	for _, f := range d.Formats {
		log.Infof("  %s %dx%d %.0fkbps %s", f.FormatID, f.Width, f.Height, f.TBR, f.URL)
	}
}
