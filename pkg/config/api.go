package config

import "time"

// APIConfig holds runtime configuration for the catalog API service.
type APIConfig struct {
	Environment        string
	ProjectName        string
	Addr               string
	LogLevel           string
	ElasticURL         string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CacheTTL           time.Duration
	Workers            int
	StartupWait        time.Duration
	RateLimitRead      int
	RateLimitSearch    int
	RateLimitWindow    time.Duration
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		ProjectName:        GetString("PROJECT_NAME", "movies"),
		Addr:               GetString("API_ADDR", ":8000"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		ElasticURL:         GetString("ELASTIC_URL", "http://127.0.0.1:9200"),
		RedisAddr:          GetString("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:      GetString("REDIS_PASSWORD", ""),
		RedisDB:            GetInt("REDIS_DB", 0),
		CacheTTL:           GetDuration("CACHE_TTL", 5*time.Minute),
		Workers:            GetInt("WORKERS", 4),
		StartupWait:        GetDuration("STARTUP_WAIT", time.Minute),
		RateLimitRead:      GetInt("RATE_LIMIT_READ", 120),
		RateLimitSearch:    GetInt("RATE_LIMIT_SEARCH", 60),
		RateLimitWindow:    GetDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
