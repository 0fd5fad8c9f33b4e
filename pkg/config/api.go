package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment          string
	Addr                 string
	LogLevel             string
	RateLimitEnabled     bool
	RateLimitReadPerMin  int
	RateLimitWritePerMin int
	RateLimitRedisAddr   string
	RateLimitRedisPass   string
	RateLimitRedisDB     int
	ShutdownTimeout      time.Duration
	WebsocketSendTimeout time.Duration
	EventStreamHeartbeat time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:          GetString("APP_ENV", "development"),
		Addr:                 GetString("API_ADDR", ":8080"),
		LogLevel:             GetString("LOG_LEVEL", "info"),
		RateLimitEnabled:     GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitReadPerMin:  GetInt("RATE_LIMIT_READ_PER_MIN", 240),
		RateLimitWritePerMin: GetInt("RATE_LIMIT_WRITE_PER_MIN", 60),
		RateLimitRedisAddr:   GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:   GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:     GetInt("RATE_LIMIT_REDIS_DB", 0),
		ShutdownTimeout:      GetSeconds("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		WebsocketSendTimeout: GetSeconds("WS_SEND_TIMEOUT_SECONDS", 5*time.Second),
		EventStreamHeartbeat: GetSeconds("SSE_HEARTBEAT_SECONDS", 15*time.Second),
	}
}
