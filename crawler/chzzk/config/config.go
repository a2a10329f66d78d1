package config

import "time"

const (
	MaxRetries     = 3
	RetryBaseDelay = 2 * time.Second
	RequestTimeout = 30 * time.Second

	APIBase      = "https://api.chzzk.naver.com"
	PlaybackBase = "https://apis.naver.com/neonplayer/vodplay/v1/playback/"
	VideoRoute   = "/service/v2/videos/"

	// HTML5 PC 播放器；HTML5 Mobile 使用 22099
	PlaybackSID = "2099"
	PlaybackEnv = "real"
	Locale      = "ko_KR"
)

// Config 命令行参数
type Config struct {
	Output      string
	Input       string
	ImageDir    string
	NoThumbnail bool
	JSON        bool
	Workers     int
}

// Endpoints 请求用到的主机和播放参数，测试时可指向本地服务
type Endpoints struct {
	APIBase      string
	PlaybackBase string
	SID          string
	Env          string
	Locale       string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{
		APIBase:      APIBase,
		PlaybackBase: PlaybackBase,
		SID:          PlaybackSID,
		Env:          PlaybackEnv,
		Locale:       Locale,
	}
}
