// Package config provides configuration management for the portal client.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration
type Config struct {
	Backend  BackendConfig
	AIServer AIServerConfig
	Chain    ChainConfig
	Wallet   WalletConfig
	Cache    CacheConfig
	Session  SessionConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// BackendConfig holds the REST backend configuration
type BackendConfig struct {
	URL           string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

// APIBase returns the base URL every backend route is resolved against
func (b BackendConfig) APIBase() string {
	return strings.TrimRight(b.URL, "/") + "/api"
}

// AIServerConfig holds the AI inference server configuration
type AIServerConfig struct {
	URL              string
	Timeout          time.Duration
	VideoTimeout     time.Duration
	RateLimitRPS     float64
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// ChainConfig holds the target network configuration
type ChainConfig struct {
	ChainID         int64
	RPCPrimary      string
	RPCSecondary    string
	ContractAddress string
	ExplorerURL     string
	IPFSGateway     string
}

// WalletConfig holds the local keystore wallet configuration
type WalletConfig struct {
	KeystoreDir string
	Passphrase  string
	Account     string
}

// CacheConfig holds the session cache configuration
type CacheConfig struct {
	Backend         string
	Freshness       time.Duration
	MetadataTimeout time.Duration
	Redis           RedisConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	TokenDBPath          string
	BootstrapMinDuration time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Locale string
	// Quiet suppresses user notifications on stdout
	Quiet bool
}

// MetricsConfig holds the optional metrics listener configuration
type MetricsConfig struct {
	Addr string
}

const (
	// SepoliaChainID is the required target network (0xaa36a7)
	SepoliaChainID int64 = 11155111

	// DefaultContractAddress is the deployed academic NFT marketplace
	DefaultContractAddress = "0x68bDBfe015f454239A259795fa523475894601e0"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Backend: BackendConfig{
			URL:           getEnv("BACKEND_URL", "http://localhost:5001"),
			Timeout:       getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			UploadTimeout: getEnvAsDuration("UPLOAD_TIMEOUT", 120*time.Second),
		},
		AIServer: AIServerConfig{
			URL:              getEnv("AI_SERVER_URL", "http://localhost:8000"),
			Timeout:          getEnvAsDuration("AI_SERVER_TIMEOUT", 60*time.Second),
			VideoTimeout:     getEnvAsDuration("AI_VIDEO_TIMEOUT", 5*time.Minute),
			RateLimitRPS:     getEnvAsFloat("AI_RATE_LIMIT_RPS", 5),
			BreakerThreshold: getEnvAsInt("AI_BREAKER_THRESHOLD", 5),
			BreakerTimeout:   getEnvAsDuration("AI_BREAKER_TIMEOUT", 30*time.Second),
		},
		Chain: ChainConfig{
			ChainID:         int64(getEnvAsInt("CHAIN_ID", int(SepoliaChainID))),
			RPCPrimary:      getEnv("RPC_URL", "https://sepolia.infura.io/v3/"),
			RPCSecondary:    getEnv("RPC_URL_SECONDARY", ""),
			ContractAddress: getEnv("CONTRACT_ADDRESS", DefaultContractAddress),
			ExplorerURL:     getEnv("EXPLORER_URL", "https://sepolia.etherscan.io"),
			IPFSGateway:     getEnv("IPFS_GATEWAY", "https://gateway.pinata.cloud/ipfs/"),
		},
		Wallet: WalletConfig{
			KeystoreDir: getEnv("KEYSTORE_DIR", "keystore"),
			Passphrase:  getEnv("WALLET_PASSPHRASE", ""),
			Account:     getEnv("WALLET_ACCOUNT", ""),
		},
		Cache: CacheConfig{
			Backend:         getEnv("CACHE_BACKEND", CacheBackendMemory),
			Freshness:       getEnvAsDuration("CACHE_FRESHNESS", 30*time.Second),
			MetadataTimeout: getEnvAsDuration("METADATA_TIMEOUT", 5*time.Second),
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
				Prefix:   getEnv("REDIS_PREFIX", "portal"),
			},
		},
		Session: SessionConfig{
			TokenDBPath:          getEnv("TOKEN_DB_PATH", "portal.db"),
			BootstrapMinDuration: getEnvAsDuration("BOOTSTRAP_MIN_DURATION", 1500*time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			Locale: getEnv("LOCALE", "vi"),
			Quiet:  getEnvAsBool("NOTIFY_QUIET", false),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for values the client cannot work with
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL must not be empty")
	}
	if c.AIServer.URL == "" {
		return fmt.Errorf("AI_SERVER_URL must not be empty")
	}
	if c.Cache.Freshness <= 0 {
		return fmt.Errorf("CACHE_FRESHNESS must be positive, got %s", c.Cache.Freshness)
	}
	if c.Cache.MetadataTimeout <= 0 {
		return fmt.Errorf("METADATA_TIMEOUT must be positive, got %s", c.Cache.MetadataTimeout)
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if !addressPattern.MatchString(c.Chain.ContractAddress) {
		return fmt.Errorf("invalid CONTRACT_ADDRESS %q", c.Chain.ContractAddress)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
