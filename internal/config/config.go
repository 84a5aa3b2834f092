package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           string

	DBURL                   string
	DBDisablePreparedBinary bool

	CacheTTL time.Duration

	SubgraphURL                 string
	SubgraphTimeout             time.Duration
	SubgraphMaxRetries          int
	SubgraphCircuitEnabled      bool
	SubgraphCircuitFailureCount int
	SubgraphCircuitOpenTimeout  time.Duration

	OracleBaseURL             string
	OracleAPIKey              string
	OracleTimeout             time.Duration
	OracleMaxRetries          int
	OracleCircuitEnabled      bool
	OracleCircuitFailureCount int
	OracleCircuitOpenTimeout  time.Duration

	ChainRPCURL            string
	ChainID                uint64
	ChainPrivateKey        string
	FortuneAddress         string
	TransferManagerAddress string
	Confirmations          uint64
	ExplorerBaseURL        string

	RefreshInterval time.Duration
	RefreshWorkers  int

	InternalJobToken string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "fortune-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("APP_LOG_LEVEL", "info"))),
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		SubgraphURL:        strings.TrimSpace(getEnv("SUBGRAPH_URL", "")),
		OracleBaseURL:      strings.TrimSpace(getEnv("ORACLE_BASE_URL", "https://api.reservoir.tools")),
		OracleAPIKey:       strings.TrimSpace(getEnv("ORACLE_API_KEY", "")),
		ChainRPCURL:        strings.TrimSpace(getEnv("CHAIN_RPC_URL", "http://localhost:8545")),
		ChainPrivateKey:    strings.TrimSpace(getEnv("CHAIN_PRIVATE_KEY", "")),
		FortuneAddress:     strings.TrimSpace(getEnv("FORTUNE_ADDRESS", "")),
		TransferManagerAddress: strings.TrimSpace(
			getEnv("TRANSFER_MANAGER_ADDRESS", "")),
		ExplorerBaseURL:  strings.TrimSpace(getEnv("EXPLORER_BASE_URL", "https://etherscan.io")),
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.SubgraphURL == "" {
		return Config{}, fmt.Errorf("SUBGRAPH_URL is required")
	}
	if cfg.ChainPrivateKey == "" {
		return Config{}, fmt.Errorf("CHAIN_PRIVATE_KEY is required")
	}
	if cfg.FortuneAddress == "" {
		return Config{}, fmt.Errorf("FORTUNE_ADDRESS is required")
	}
	if cfg.TransferManagerAddress == "" {
		return Config{}, fmt.Errorf("TRANSFER_MANAGER_ADDRESS is required")
	}

	chainID, err := getEnvAsUint64("CHAIN_ID", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAIN_ID: %w", err)
	}
	if chainID == 0 {
		return Config{}, fmt.Errorf("CHAIN_ID must be > 0")
	}
	cfg.ChainID = chainID

	confirmations, err := getEnvAsUint64("CHAIN_CONFIRMATIONS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAIN_CONFIRMATIONS: %w", err)
	}
	if confirmations == 0 {
		return Config{}, fmt.Errorf("CHAIN_CONFIRMATIONS must be > 0")
	}
	cfg.Confirmations = confirmations

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheTTL = cacheTTL

	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}
	cfg.RefreshInterval = refreshInterval

	refreshWorkers, err := getEnvAsInt("REFRESH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WORKERS: %w", err)
	}
	if refreshWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_WORKERS must be >= 1")
	}
	cfg.RefreshWorkers = refreshWorkers

	if err := loadSubgraphConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadOracleConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservabilityConfig(&cfg); err != nil {
		return Config{}, err
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	return cfg, nil
}

func loadSubgraphConfig(cfg *Config) error {
	timeout, err := time.ParseDuration(getEnv("SUBGRAPH_TIMEOUT", "10s"))
	if err != nil {
		return fmt.Errorf("parse SUBGRAPH_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("SUBGRAPH_TIMEOUT must be > 0")
	}
	maxRetries, err := getEnvAsInt("SUBGRAPH_MAX_RETRIES", 2)
	if err != nil {
		return fmt.Errorf("parse SUBGRAPH_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return fmt.Errorf("SUBGRAPH_MAX_RETRIES must be >= 0")
	}
	circuitEnabled, err := strconv.ParseBool(getEnv("SUBGRAPH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse SUBGRAPH_CIRCUIT_ENABLED: %w", err)
	}
	failureCount, err := getEnvAsInt("SUBGRAPH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return fmt.Errorf("parse SUBGRAPH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return fmt.Errorf("SUBGRAPH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	openTimeout, err := time.ParseDuration(getEnv("SUBGRAPH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return fmt.Errorf("parse SUBGRAPH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return fmt.Errorf("SUBGRAPH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	cfg.SubgraphTimeout = timeout
	cfg.SubgraphMaxRetries = maxRetries
	cfg.SubgraphCircuitEnabled = circuitEnabled
	cfg.SubgraphCircuitFailureCount = failureCount
	cfg.SubgraphCircuitOpenTimeout = openTimeout
	return nil
}

func loadOracleConfig(cfg *Config) error {
	timeout, err := time.ParseDuration(getEnv("ORACLE_TIMEOUT", "10s"))
	if err != nil {
		return fmt.Errorf("parse ORACLE_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be > 0")
	}
	maxRetries, err := getEnvAsInt("ORACLE_MAX_RETRIES", 2)
	if err != nil {
		return fmt.Errorf("parse ORACLE_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return fmt.Errorf("ORACLE_MAX_RETRIES must be >= 0")
	}
	circuitEnabled, err := strconv.ParseBool(getEnv("ORACLE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse ORACLE_CIRCUIT_ENABLED: %w", err)
	}
	failureCount, err := getEnvAsInt("ORACLE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return fmt.Errorf("parse ORACLE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return fmt.Errorf("ORACLE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	openTimeout, err := time.ParseDuration(getEnv("ORACLE_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return fmt.Errorf("parse ORACLE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return fmt.Errorf("ORACLE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	cfg.OracleTimeout = timeout
	cfg.OracleMaxRetries = maxRetries
	cfg.OracleCircuitEnabled = circuitEnabled
	cfg.OracleCircuitFailureCount = failureCount
	cfg.OracleCircuitOpenTimeout = openTimeout
	return nil
}

func loadObservabilityConfig(cfg *Config) error {
	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = pprofAddr

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = uptraceDSN

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = pyroscopeServerAddress
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate = pyroscopeUploadRate
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsUint64(key string, fallback uint64) (uint64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
