package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Kick OAuth
	KickClientID     string
	KickClientSecret string
	KickTokenURL     string
	KickAPIURL       string

	// 入出力パス
	RosterPath   string
	ChannelsPath string
	LiveOutput   string
	VideosOutput string

	// Fetch
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FetchRetries       int
	FetchBaseDelay     time.Duration
	FetchMaxDelay      time.Duration
	FetchMaxConcurrent int

	// YouTube
	VideosPerChannel int
	ProxyFeedMax     int

	// Rate Limit
	RateLimitPerMin int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

const (
	defaultKickTokenURL = "https://id.kick.com/oauth/token"
	defaultKickAPIURL   = "https://api.kick.com/public/v1"
)

// Load は環境変数からConfigを読み込む。
// Kickの認証情報は任意扱いとし、必要とするパス（live/serve）の側で
// HasKickCredentialsにより検証する。ビルドの設定不備は実行時に
// 空アーティファクト生成へ劣化させるため、ここではエラーにしない。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.KickClientID = os.Getenv("KICK_CLIENT_ID")
	cfg.KickClientSecret = os.Getenv("KICK_CLIENT_SECRET")
	cfg.KickTokenURL = getEnvString("KICK_TOKEN_URL", defaultKickTokenURL)
	cfg.KickAPIURL = getEnvString("KICK_API_URL", defaultKickAPIURL)

	cfg.RosterPath = getEnvString("ROSTER_PATH", "data.json")
	cfg.ChannelsPath = getEnvString("CHANNELS_PATH", "channels.json")
	cfg.LiveOutput = getEnvString("LIVE_OUTPUT", "live.json")
	cfg.VideosOutput = getEnvString("VIDEOS_OUTPUT", "videos.json")

	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 8*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 2097152)
	cfg.FetchRetries = getEnvInt("FETCH_RETRIES", 2)
	cfg.FetchBaseDelay = getEnvDuration("FETCH_BASE_DELAY", 600*time.Millisecond)
	cfg.FetchMaxDelay = getEnvDuration("FETCH_MAX_DELAY", 30*time.Second)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 5)

	cfg.VideosPerChannel = getEnvInt("VIDEOS_PER_CHANNEL", 4)
	cfg.ProxyFeedMax = getEnvInt("PROXY_FEED_MAX", 6)

	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", 120)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

// HasKickCredentials はKick APIの認証情報が両方設定されているかを返す。
func (c *Config) HasKickCredentials() bool {
	return c.KickClientID != "" && c.KickClientSecret != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
