package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SUBGRAPH_URL", "https://api.thegraph.com/subgraphs/name/fortune")
	t.Setenv("CHAIN_PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	t.Setenv("FORTUNE_ADDRESS", "0x1000000000000000000000000000000000000001")
	t.Setenv("TRANSFER_MANAGER_ADDRESS", "0x1000000000000000000000000000000000000002")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_RequiredValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "subgraph url", key: "SUBGRAPH_URL"},
		{name: "private key", key: "CHAIN_PRIVATE_KEY"},
		{name: "fortune address", key: "FORTUNE_ADDRESS"},
		{name: "transfer manager address", key: "TRANSFER_MANAGER_ADDRESS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, "")
			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s is missing", tt.key)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "fortune-api" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.ChainID != 1 {
		t.Fatalf("unexpected default chain id: %d", cfg.ChainID)
	}
	if cfg.Confirmations != 5 {
		t.Fatalf("unexpected default confirmations: %d", cfg.Confirmations)
	}
	if cfg.RefreshInterval != 10*time.Second {
		t.Fatalf("unexpected default refresh interval: %s", cfg.RefreshInterval)
	}
	if cfg.RefreshWorkers != 4 {
		t.Fatalf("unexpected default refresh workers: %d", cfg.RefreshWorkers)
	}
	if cfg.CacheTTL != 5*time.Second {
		t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
	}
	if cfg.DBURL != "" {
		t.Fatalf("expected no database by default, got %q", cfg.DBURL)
	}
	if !cfg.SubgraphCircuitEnabled || cfg.SubgraphCircuitFailureCount != 5 {
		t.Fatalf("unexpected subgraph circuit defaults")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_SERVICE_NAME", "fortune-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "fortune-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Run("default wildcard", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
	})
}

func TestLoad_ChainConfigParsing(t *testing.T) {
	t.Run("custom chain id and confirmations", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CHAIN_ID", "11155111")
		t.Setenv("CHAIN_CONFIRMATIONS", "3")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ChainID != 11155111 {
			t.Fatalf("unexpected chain id: %d", cfg.ChainID)
		}
		if cfg.Confirmations != 3 {
			t.Fatalf("unexpected confirmations: %d", cfg.Confirmations)
		}
	})

	t.Run("zero confirmations rejected", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CHAIN_CONFIRMATIONS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for zero confirmations")
		}
	})

	t.Run("invalid chain id", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CHAIN_ID", "mainnet")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non-numeric CHAIN_ID")
		}
	})
}

func TestLoad_RefreshIntervalValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REFRESH_INTERVAL", "bad")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid REFRESH_INTERVAL")
	}
}
