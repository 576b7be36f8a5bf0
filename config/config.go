package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr string

	// MySQL配置
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Suno外部API配置
	SunoCookie     string
	SunoBaseURL    string
	SunoClerkURL   string
	SunoModel      string
	GenConcurrency int // 同时进行的生成任务上限

	// SSO统一认证配置
	SSOSecret      string
	SSOUserInfoURL string
	SSOPid         int

	// 本地会话Token密钥
	JWTSecret string

	// 文件存储配置
	StaticDir string
	FilesDir  string // 下载的歌曲媒体文件目录: StaticDir/files
	DailyFree int    // 每人每日免费生成的歌曲数（一次提交产生两首）

	// MinIO归档配置（可选）
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// 日志配置
	LogPath  string
	LogLevel string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	staticBase := getEnv("STATIC_DIR", "static")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":6699"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // 密码不提供默认值
		DBName:     getEnv("DB_NAME", "musegen"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SunoCookie:     os.Getenv("SUNO_COOKIE"),
		SunoBaseURL:    getEnv("SUNO_BASE_URL", "https://studio-api.suno.ai"),
		SunoClerkURL:   getEnv("SUNO_CLERK_URL", "https://clerk.suno.com"),
		SunoModel:      getEnv("SUNO_MODEL", "chirp-v3-0"),
		GenConcurrency: getEnvInt("GENERATE_CONCURRENCY", 2),

		SSOSecret:      os.Getenv("SSO_SECRET"),
		SSOUserInfoURL: getEnv("SSO_USER_INFO_URL", "https://unified-auth.example.com/service/user/info"),
		SSOPid:         getEnvInt("SSO_PID", 14),

		JWTSecret: getEnv("JWT_SECRET", "musegen-dev-secret"),

		StaticDir: staticBase,
		FilesDir:  filepath.Join(staticBase, "files"),
		DailyFree: getEnvInt("DAILY_FREE_SONGS", 6),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "musegen"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),

		LogPath:  getEnv("LOG_PATH", "logs/musegen.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}
