package env

import (
	"fmt"
	"os"
)

const (
	WSURL            = "SUPPORT_WS_URL"
	HistoryAPIURL    = "SUPPORT_API_URL"
	AuthBearer       = "SUPPORT_AUTH_BEARER"
	NotifyRedisURL   = "SUPPORT_NOTIFY_REDIS_URL"
	NotifyRedisPass  = "SUPPORT_NOTIFY_REDIS_PASS"
	NotifyChannel    = "SUPPORT_NOTIFY_CHANNEL"
	NotifyWebhookURL = "SUPPORT_NOTIFY_WEBHOOK_URL"
	MetricsAddr      = "SUPPORT_METRICS_ADDR"
)

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

// Require reports every missing variable at once so a misconfigured deploy
// fails with a single actionable message.
func Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("env: required environment variables not set: %v", missing)
	}
	return nil
}
