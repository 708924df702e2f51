package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/config"
	"github.com/smartcity/commute/internal/heatmap"
	"github.com/smartcity/commute/internal/metrics"
	"github.com/smartcity/commute/internal/route"
)

// Collaborators are the external capabilities selected from configuration
type Collaborators struct {
	Weights   heatmap.WeightSource
	Predictor Predictor
	Oracle    route.Oracle

	// ML is nil in demo mode
	ML *MLBridge
}

// NewCollaborators picks the real clients when they are configured and the
// synthetic ones otherwise. An empty ML URL serves synthetic weights with the
// mock predictor; an empty directions key routes "lat,lng" pairs in a straight line.
func NewCollaborators(cfg *config.Config, m *metrics.Metrics) Collaborators {
	var c Collaborators

	if cfg.ML.ServiceURL != "" {
		c.ML = NewMLBridge(cfg.ML.ServiceURL, time.Duration(cfg.ML.TimeoutSecs)*time.Second, m)
		c.Weights = c.ML
		c.Predictor = c.ML
	} else {
		zap.L().Warn("ml.service_url not set, using synthetic weights and mock predictor")
		c.Weights = NewSyntheticWeights()
		c.Predictor = NewMockPredictor()
	}

	if cfg.Directions.APIKey != "" {
		c.Oracle = NewDirectionsClient(cfg.Directions.APIKey, cfg.Directions.BaseURL, cfg.Directions.RateLimit, m)
	} else {
		zap.L().Warn("directions.api_key not set, using straight-line routing")
		c.Oracle = NewStraightLineOracle()
	}

	return c
}

// HeatmapSettingsFrom maps the heatmap configuration
func HeatmapSettingsFrom(cfg config.HeatmapConfig) HeatmapSettings {
	return HeatmapSettings{
		Bounds:          cfg.Bounds(),
		Step:            cfg.Step,
		CurrentSpeed:    cfg.CurrentSpeed,
		CongestionLevel: cfg.CongestionLevel,
		Normalize:       cfg.Normalize,
	}
}

// CommuteDefaultsFrom maps the commute configuration
func CommuteDefaultsFrom(cfg config.CommuteConfig) CommuteDefaults {
	return CommuteDefaults{
		SpeedMph:        cfg.DefaultSpeedMph,
		CongestionLevel: cfg.DefaultCongestion,
	}
}
