package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/geo"
	"github.com/smartcity/commute/internal/heatmap"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	ML         MLConfig         `yaml:"ml" mapstructure:"ml"`
	Directions DirectionsConfig `yaml:"directions" mapstructure:"directions"`
	Heatmap    HeatmapConfig    `yaml:"heatmap" mapstructure:"heatmap"`
	Commute    CommuteConfig    `yaml:"commute" mapstructure:"commute"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int    `yaml:"port" mapstructure:"port"`
	Env          string `yaml:"env" mapstructure:"env"`
	AllowOrigins string `yaml:"allow_origins" mapstructure:"allow_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DatabaseConfig configures PostgreSQL. An empty URL runs without persistence.
type DatabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// MLConfig points at the travel time model service. An empty URL serves
// synthetic weights and no predictions.
type MLConfig struct {
	ServiceURL  string `yaml:"service_url" mapstructure:"service_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DirectionsConfig configures the routing oracle.
type DirectionsConfig struct {
	APIKey    string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// HeatmapConfig sets the sampling lattice and the heatmap request context.
type HeatmapConfig struct {
	North           float64                  `yaml:"north" mapstructure:"north"`
	South           float64                  `yaml:"south" mapstructure:"south"`
	East            float64                  `yaml:"east" mapstructure:"east"`
	West            float64                  `yaml:"west" mapstructure:"west"`
	Step            float64                  `yaml:"step" mapstructure:"step"`
	CurrentSpeed    float64                  `yaml:"current_speed" mapstructure:"current_speed"`
	CongestionLevel float64                  `yaml:"congestion_level" mapstructure:"congestion_level"`
	Normalize       heatmap.NormalizeOptions `yaml:"normalize" mapstructure:"normalize"`
}

// Bounds returns the configured bounding box
func (h HeatmapConfig) Bounds() domain.Bounds {
	return domain.Bounds{North: h.North, South: h.South, East: h.East, West: h.West}
}

// CommuteConfig holds the route-then-predict defaults.
type CommuteConfig struct {
	DefaultSpeedMph   float64 `yaml:"default_speed_mph" mapstructure:"default_speed_mph"`
	DefaultCongestion float64 `yaml:"default_congestion" mapstructure:"default_congestion"`
}

// Load reads .env, then configuration from file and environment.
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("config: no .env file, using process environment")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COMMUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// COMMUTE_ML_SERVICE_URL= selects demo mode
	v.AllowEmptyEnv(true)

	norm := heatmap.DefaultNormalizeOptions()
	bounds := domain.ChicagoCoreBounds

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.url", "")
	v.SetDefault("ml.service_url", "http://localhost:8000")
	v.SetDefault("ml.timeout_secs", 30)
	v.SetDefault("directions.api_key", "")
	v.SetDefault("directions.base_url", "https://maps.googleapis.com/maps/api/directions/json")
	v.SetDefault("directions.rate_limit", 5.0)
	v.SetDefault("heatmap.north", bounds.North)
	v.SetDefault("heatmap.south", bounds.South)
	v.SetDefault("heatmap.east", bounds.East)
	v.SetDefault("heatmap.west", bounds.West)
	v.SetDefault("heatmap.step", 0.006)
	v.SetDefault("heatmap.current_speed", 30.0)
	v.SetDefault("heatmap.congestion_level", 2.0)
	v.SetDefault("heatmap.normalize.low_pct", norm.LowPct)
	v.SetDefault("heatmap.normalize.high_pct", norm.HighPct)
	v.SetDefault("heatmap.normalize.floor", norm.Floor)
	v.SetDefault("heatmap.normalize.gamma", norm.Gamma)
	v.SetDefault("heatmap.normalize.max_scale", norm.MaxScale)
	v.SetDefault("commute.default_speed_mph", 62.0)
	v.SetDefault("commute.default_congestion", 2.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the heatmap lattice and normalization settings.
func (c *Config) Validate() error {
	if err := geo.ValidateGrid(c.Heatmap.Bounds(), c.Heatmap.Step); err != nil {
		return eris.Wrap(err, "config: heatmap grid")
	}
	if err := c.Heatmap.Normalize.Validate(); err != nil {
		return eris.Wrap(err, "config: heatmap normalize")
	}
	if c.ML.TimeoutSecs <= 0 {
		return eris.Wrapf(domain.ErrInvalidConfig, "config: ml.timeout_secs must be positive, got %d", c.ML.TimeoutSecs)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
