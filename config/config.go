package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var cfg *Config

func Get() *Config {
	return cfg
}

type Config struct {
	AppName         string `mapstructure:"app_name"`
	DefaultPort     int    `mapstructure:"default_port"`
	UserDataDir     string `mapstructure:"user_data_dir"`
	DatabasePath    string `mapstructure:"database_path"`
	ImageStorageDir string `mapstructure:"image_storage_dir"`

	AllowedImageDomains []string `mapstructure:"allowed_image_domains"`

	Logging struct {
		LogFile    string `mapstructure:"log_file"`
		LogLevel   string `mapstructure:"log_level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"logging"`

	Crawler struct {
		CookieFile    string `mapstructure:"cookie_file"`
		NoThumbnail   bool   `mapstructure:"no_thumbnail"`
		OutputDir     string `mapstructure:"output_dir"`
		Workers       int    `mapstructure:"workers"`
		MaxTryCount   int    `mapstructure:"max_try_count"`
		TimeoutSec    int    `mapstructure:"timeout_sec"`
		DelayBaseMs   int    `mapstructure:"delay_base_ms"`
		DelayJitterMs int    `mapstructure:"delay_jitter_ms"`
		APIBase       string `mapstructure:"api_base"`
		PlaybackBase  string `mapstructure:"playback_base"`
		SID           string `mapstructure:"sid"`
		Env           string `mapstructure:"env"`
		Locale        string `mapstructure:"locale"`
	} `mapstructure:"crawler"`
}

// 路径规范化：~ 展开、转绝对路径
func normalizePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			wd, _ := os.Getwd()
			home = wd
		}
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve relative path %s: %w", path, err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// 确保目录存在
func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// setDefaults 所有默认值集中在这里
func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault("app_name", "ChzzkVodResolver")
	v.SetDefault("default_port", 5000)
	v.SetDefault("user_data_dir", filepath.Join(homeDir, ".chzzk-vod-resolver"))

	v.SetDefault("database_path", "{{user_data_dir}}/chzzk.db")
	v.SetDefault("image_storage_dir", "{{user_data_dir}}/images")
	v.SetDefault("allowed_image_domains", []string{"pstatic.net", "naver.net", "naver.com"})

	v.SetDefault("logging.log_file", "{{user_data_dir}}/logs/app.log")
	v.SetDefault("logging.log_level", "info")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("crawler.cookie_file", "{{user_data_dir}}/cookie.txt")
	v.SetDefault("crawler.no_thumbnail", false)
	v.SetDefault("crawler.output_dir", "{{user_data_dir}}/output")
	v.SetDefault("crawler.workers", 5)
	v.SetDefault("crawler.max_try_count", 3)
	v.SetDefault("crawler.timeout_sec", 30)
	v.SetDefault("crawler.delay_base_ms", 500)
	v.SetDefault("crawler.delay_jitter_ms", 500)
	v.SetDefault("crawler.api_base", "https://api.chzzk.naver.com")
	v.SetDefault("crawler.playback_base", "https://apis.naver.com/neonplayer/vodplay/v1/playback/")
	v.SetDefault("crawler.sid", "2099")
	v.SetDefault("crawler.env", "real")
	v.SetDefault("crawler.locale", "ko_KR")
}

func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper(), true)
}

// loadConfig 读取 config.yaml 和环境变量（CRAWLER_WORKERS 等）
func loadConfig(v *viper.Viper, createDirs bool) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		wd, _ := os.Getwd()
		homeDir = wd
	}
	setDefaults(v, homeDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configObj Config
	if err := v.Unmarshal(&configObj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// {{user_data_dir}} 按当前 viper 实例展开
	userDataDir, err := normalizePath(configObj.UserDataDir)
	if err != nil {
		return nil, fmt.Errorf("path normalization error: %w", err)
	}
	configObj.UserDataDir = userDataDir

	pathsToNormalize := []*string{
		&configObj.DatabasePath,
		&configObj.ImageStorageDir,
		&configObj.Crawler.CookieFile,
		&configObj.Crawler.OutputDir,
		&configObj.Logging.LogFile,
	}
	for _, pathPtr := range pathsToNormalize {
		*pathPtr = strings.ReplaceAll(*pathPtr, "{{user_data_dir}}", userDataDir)
		normalized, err := normalizePath(*pathPtr)
		if err != nil {
			return nil, fmt.Errorf("path normalization error: %w", err)
		}
		*pathPtr = normalized
	}

	if createDirs {
		for _, dir := range []string{
			configObj.UserDataDir,
			filepath.Dir(configObj.DatabasePath),
			configObj.ImageStorageDir,
			configObj.Crawler.OutputDir,
		} {
			if err := ensureDir(dir); err != nil {
				return nil, fmt.Errorf("failed to create dir %s: %w", dir, err)
			}
		}
	}

	cfg = &configObj
	return cfg, nil
}
