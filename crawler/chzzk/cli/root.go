package cli

import (
	"fmt"
	"os"

	"chzzk-vod-resolver-go/config"
	chzzkconfig "chzzk-vod-resolver-go/crawler/chzzk/config"
	"chzzk-vod-resolver-go/logger"

	"github.com/spf13/cobra"
)

// 程序版本信息
const (
	Version   = "1.0.0"
	BuildTime = "2026-10-18"
)

var (
	opts       chzzkconfig.Config
	cookieFile string
	logLevel   string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chzzk-vod",
	Short: "chzzk 回放解析工具",
	Long:  "解析 chzzk.naver.com/video/<id> 回放地址，输出元数据和 DASH 格式列表",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = cfg

		// 日志文件和轮转取自配置，--log-level 只覆盖级别
		logger.InitLogger(
			cfg.Logging.LogFile,
			effectiveLogLevel(cfg, logLevel),
			cfg.Logging.MaxSizeMB,
			cfg.Logging.MaxBackups,
			cfg.Logging.MaxAgeDays,
		)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cookieFile, "cookie", "c", "", "cookie 文件路径，成人内容需要")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别，默认取配置文件")
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 读取配置文件，命令行参数优先
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cookieFile != "" {
		cfg.Crawler.CookieFile = cookieFile
	}
	if opts.ImageDir != "" {
		cfg.ImageStorageDir = opts.ImageDir
	}
	if opts.Workers > 0 {
		cfg.Crawler.Workers = opts.Workers
	}
	cfg.Crawler.NoThumbnail = cfg.Crawler.NoThumbnail || opts.NoThumbnail
	return cfg, nil
}

func effectiveLogLevel(cfg *config.Config, flagLevel string) string {
	if flagLevel != "" {
		return flagLevel
	}
	return cfg.Logging.LogLevel
}
