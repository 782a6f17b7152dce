package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by every binary. Each service reads the
// subset it needs; unset keys fall back to local-development defaults.
type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int
	GRPCPort int

	CartStore  string
	OrderStore string
	RedisAddr  string
	CartTTL    time.Duration
	MySQLDSN   string

	RabbitMQURL string

	ProductServiceURL string
	CartServiceURL    string
	ClientTimeout     time.Duration

	PermissiveTransitions bool

	GatewayName         string
	GatewayVersion      string
	GatewayServicesFile string
	ProxyTimeout        time.Duration
	HealthTimeout       time.Duration
	RateLimit           int
	RateBurst           int
	CORSAllowedOrigins  []string
}

// Load reads an optional .env file, then the process environment.
func Load(defaultHTTPPort, defaultGRPCPort int) Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort: getEnvInt("HTTP_PORT", defaultHTTPPort),
		GRPCPort: getEnvInt("GRPC_PORT", defaultGRPCPort),

		CartStore:  getEnv("CART_STORE", "memory"),
		OrderStore: getEnv("ORDER_STORE", "memory"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		CartTTL:    getEnvDuration("CART_TTL", 0),
		MySQLDSN:   getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/mybasket?parseTime=true"),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://localhost:3001"),
		CartServiceURL:    getEnv("CART_SERVICE_URL", "http://localhost:3002"),
		ClientTimeout:     getEnvDuration("CLIENT_TIMEOUT", 5*time.Second),

		PermissiveTransitions: getEnvBool("ORDER_PERMISSIVE_TRANSITIONS", false),

		GatewayName:         getEnv("GATEWAY_NAME", "api-gateway"),
		GatewayVersion:      getEnv("GATEWAY_VERSION", "1.0.0"),
		GatewayServicesFile: getEnv("GATEWAY_SERVICES_FILE", "config/services.yaml"),
		ProxyTimeout:        getEnvDuration("GATEWAY_PROXY_TIMEOUT", 30*time.Second),
		HealthTimeout:       getEnvDuration("GATEWAY_HEALTH_TIMEOUT", 5*time.Second),
		RateLimit:           getEnvInt("GATEWAY_RATE_LIMIT", 100),
		RateBurst:           getEnvInt("GATEWAY_RATE_BURST", 200),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
