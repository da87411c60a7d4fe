// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/tonswap/internal/asset"
)

// Config holds all application configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	DeDust       DeDustConfig       `mapstructure:"dedust"`
	StonFi       StonFiConfig       `mapstructure:"stonfi"`
	Quoting      QuotingConfig      `mapstructure:"quoting"`
	Settlement   SettlementConfig   `mapstructure:"settlement"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Proxy        ProxyConfig        `mapstructure:"proxy"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"` // empty = stderr only
}

// ServerConfig holds the public HTTP/WebSocket listener settings.
type ServerConfig struct {
	Address           string        `mapstructure:"address"`
	WSPath            string        `mapstructure:"ws_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig is shared by every swap backend.
type BackendConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// DeDustConfig holds DeDust API settings.
type DeDustConfig struct {
	BackendConfig `mapstructure:",squash"`
}

// StonFiConfig holds STON.fi API settings.
type StonFiConfig struct {
	BackendConfig    `mapstructure:",squash"`
	NativeAddress    string `mapstructure:"native_address"`
	SimulateSlippage string `mapstructure:"simulate_slippage"`
}

// QuotingConfig controls aggregation.
type QuotingConfig struct {
	Priority        []string      `mapstructure:"priority"` // tie-break order
	DefaultBackend  string        `mapstructure:"default_backend"`
	PoolCacheTTL    time.Duration `mapstructure:"pool_cache_ttl"`
	PricePoolLimit  int           `mapstructure:"price_pool_limit"`
	DefaultSlippage float64       `mapstructure:"default_slippage"` // percent
}

// DefaultSlippageDecimal returns the default slippage percentage.
func (c *QuotingConfig) DefaultSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultSlippage)
}

// SettlementConfig holds the DeDust settlement contracts and fee buffers.
type SettlementConfig struct {
	VaultAddress        string `mapstructure:"vault_address"`
	FactoryAddress      string `mapstructure:"factory_address"`
	JettonToNativeValue string `mapstructure:"jetton_to_native_value"`
	JettonToJettonValue string `mapstructure:"jetton_to_jetton_value"`
}

// SubscriptionConfig controls price subscriptions and the WS connection.
type SubscriptionConfig struct {
	DefaultInterval time.Duration `mapstructure:"default_interval"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
}

// ProxyConfig holds the reverse proxy and catalog settings.
type ProxyConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	UpstreamURL    string        `mapstructure:"upstream_url"`
	Prefixes       []string      `mapstructure:"prefixes"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	AppEnv         string        `mapstructure:"app_env"`
	CatalogPath    string        `mapstructure:"catalog_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceExporter  string `mapstructure:"trace_exporter"` // zipkin, otlp-grpc, otlp-http, console, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SWAP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SWAP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SWAP_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "SWAP_LOG_FILE")

	// Server
	v.BindEnv("server.address", "SWAP_SERVER_ADDRESS")
	v.BindEnv("server.ws_path", "SWAP_WS_PATH")

	// Backends
	v.BindEnv("dedust.base_url", "SWAP_DEDUST_URL", "DEDUST_API")
	v.BindEnv("stonfi.base_url", "SWAP_STONFI_URL", "STONFI_API")

	// Settlement
	v.BindEnv("settlement.vault_address", "SWAP_DEDUST_VAULT", "DEDUST_VAULT")
	v.BindEnv("settlement.factory_address", "SWAP_DEDUST_FACTORY", "DEDUST_FACTORY")

	// Proxy
	v.BindEnv("proxy.upstream_url", "SWAP_PROXY_UPSTREAM", "PROXY_UPSTREAM")
	v.BindEnv("proxy.app_env", "SWAP_APP_ENV", "APP_ENV")
	v.BindEnv("proxy.catalog_path", "SWAP_CATALOG_PATH", "CATALOG_PATH")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SWAP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SWAP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SWAP_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "SWAP_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tonswap")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.address", ":3001")
	v.SetDefault("server.ws_path", "/ws")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("dedust.base_url", "https://api.dedust.io/v2")
	v.SetDefault("dedust.timeout", "10s")
	v.SetDefault("dedust.requests_per_minute", 600)

	v.SetDefault("stonfi.base_url", "https://api.ston.fi/v1")
	v.SetDefault("stonfi.timeout", "10s")
	v.SetDefault("stonfi.requests_per_minute", 600)
	v.SetDefault("stonfi.native_address", asset.ZeroAddress)
	v.SetDefault("stonfi.simulate_slippage", "0.01")

	v.SetDefault("quoting.priority", []string{"dedust", "stonfi"})
	v.SetDefault("quoting.default_backend", "dedust")
	v.SetDefault("quoting.pool_cache_ttl", "2s")
	v.SetDefault("quoting.price_pool_limit", 20)
	v.SetDefault("quoting.default_slippage", 0.5)

	// DeDust mainnet contracts
	v.SetDefault("settlement.vault_address", "EQDa4VOnTYlLvDJ0gZjNYm5PXfSmmtL6Vs6A_CZEtXCNICq_")
	v.SetDefault("settlement.factory_address", "EQBfBWT7X2BHg9tXAxzhz2aKiNTU1tpt5NsiK0uSDW_YAJ67")
	v.SetDefault("settlement.jetton_to_native_value", "300000000") // 0.3 TON
	v.SetDefault("settlement.jetton_to_jetton_value", "500000000") // 0.5 TON

	v.SetDefault("subscription.default_interval", "3s")
	v.SetDefault("subscription.min_interval", "500ms")
	v.SetDefault("subscription.write_timeout", "5s")
	v.SetDefault("subscription.ping_interval", "30s")
	v.SetDefault("subscription.max_message_size", 64*1024)

	v.SetDefault("proxy.enabled", true)
	v.SetDefault("proxy.upstream_url", "https://api.mytonwallet.org")
	v.SetDefault("proxy.prefixes", []string{"/.netlify/functions/proxy", "/proxy"})
	v.SetDefault("proxy.allowed_origins", []string{
		"https://tonapi.netlify.app",
		"http://localhost:4321",
		"http://127.0.0.1:4321",
		"http://localhost:8888",
	})
	v.SetDefault("proxy.app_env", "Production")
	v.SetDefault("proxy.catalog_path", "catalog.json")
	v.SetDefault("proxy.timeout", "15s")
	v.SetDefault("proxy.max_body_bytes", 10<<20)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "tonswap")
	v.SetDefault("telemetry.trace_exporter", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DeDust.BaseURL == "" {
		return fmt.Errorf("dedust.base_url is required")
	}
	if c.StonFi.BaseURL == "" {
		return fmt.Errorf("stonfi.base_url is required")
	}
	if err := asset.ValidateAddress(c.Settlement.VaultAddress); err != nil {
		return fmt.Errorf("invalid settlement.vault_address: %w", err)
	}
	if err := asset.ValidateAddress(c.Settlement.FactoryAddress); err != nil {
		return fmt.Errorf("invalid settlement.factory_address: %w", err)
	}
	if err := asset.ValidateAddress(c.StonFi.NativeAddress); err != nil {
		return fmt.Errorf("invalid stonfi.native_address: %w", err)
	}
	for key, value := range map[string]string{
		"settlement.jetton_to_native_value": c.Settlement.JettonToNativeValue,
		"settlement.jetton_to_jetton_value": c.Settlement.JettonToJettonValue,
	} {
		if _, err := asset.ParseUnits(value); err != nil {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
	}
	if len(c.Quoting.Priority) == 0 {
		return fmt.Errorf("quoting.priority cannot be empty")
	}
	if c.Quoting.DefaultSlippage < 0 || c.Quoting.DefaultSlippage >= 100 {
		return fmt.Errorf("quoting.default_slippage must be in [0, 100): %v", c.Quoting.DefaultSlippage)
	}
	if c.Subscription.DefaultInterval <= 0 {
		return fmt.Errorf("subscription.default_interval must be positive")
	}
	if c.Proxy.Enabled && c.Proxy.UpstreamURL == "" {
		return fmt.Errorf("proxy.upstream_url is required when the proxy is enabled")
	}
	return nil
}
