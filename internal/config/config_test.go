package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, 10, cfg.ChannelRateLimit)
	assert.Equal(t, 20, cfg.TopicRateLimit)
	assert.Equal(t, 120, cfg.MessageRateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_WINDOW", "15m")
	t.Setenv("MESSAGE_RATE_LIMIT", "5")
	t.Setenv("TOPIC_RATE_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.MessageRateLimit)
	// Neispravna vrijednost pada na default
	assert.Equal(t, 20, cfg.TopicRateLimit)
}
