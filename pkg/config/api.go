package config

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment          string
	Addr                 string
	LogLevel             string
	DatasetSource        string
	DatasetPath          string
	DatabaseURL          string
	MigrationsDir        string
	CaseSensitiveRegions bool
	CORSAllowedOrigin    string
	SyntheticSeed        int64
	SyntheticPerRegion   int
	RateLimitRedisAddr   string
	RateLimitRedisPass   string
	RateLimitRedisDB     int
}

// LoadAPIConfig constructs an APIConfig from environment variables,
// honoring a .env file when one exists in the working directory.
func LoadAPIConfig() APIConfig {
	loadDotEnv()
	return APIConfig{
		Environment:          GetString("APP_ENV", "development"),
		Addr:                 GetString("API_ADDR", ":8080"),
		LogLevel:             GetString("APP_LOG_LEVEL", "info"),
		DatasetSource:        GetString("DATASET_SOURCE", "auto"),
		DatasetPath:          GetString("DATASET_PATH", ""),
		DatabaseURL:          GetString("DATABASE_URL", ""),
		MigrationsDir:        GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		CaseSensitiveRegions: GetBool("METRICS_CASE_SENSITIVE", false),
		CORSAllowedOrigin:    GetString("CORS_ALLOWED_ORIGIN", "*"),
		SyntheticSeed:        GetInt64("DATASET_SYNTHETIC_SEED", 0),
		SyntheticPerRegion:   GetInt("DATASET_SYNTHETIC_PER_REGION", 12),
		RateLimitRedisAddr:   GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:   GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:     GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
