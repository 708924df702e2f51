package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/service"
	"github.com/smartcity/commute/pkg/utils"
)

// Handler contains all HTTP handlers
type Handler struct {
	heatmapSvc   *service.HeatmapService
	commuteSvc   *service.CommuteService
	dashboardSvc *service.DashboardService
}

// NewHandler creates a new handler
func NewHandler(heatmapSvc *service.HeatmapService, commuteSvc *service.CommuteService, dashboardSvc *service.DashboardService) *Handler {
	return &Handler{
		heatmapSvc:   heatmapSvc,
		commuteSvc:   commuteSvc,
		dashboardSvc: dashboardSvc,
	}
}

// HeatmapRequest is the body of POST /api/v1/heatmap. Every field is optional.
type HeatmapRequest struct {
	CurrentSpeed    *float64 `json:"current_speed"`
	CongestionLevel *float64 `json:"congestion_level"`
	Datetime        string   `json:"datetime_str"`
}

// CommuteRequest is the body of POST /api/v1/commute
type CommuteRequest struct {
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	SpeedMph        *float64   `json:"speed_mph"`
	CongestionLevel *float64   `json:"congestion_level"`
	DepartAt        *time.Time `json:"depart_at"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "commute-backend",
		"version": "1.0.0",
	})
}

// GetDashboard returns the current results and dependency health
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	data := h.dashboardSvc.GetDashboardData(c.UserContext())

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// RefreshHeatmap scores the grid and returns the new layer
func (h *Handler) RefreshHeatmap(c *fiber.Ctx) error {
	var req HeatmapRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	at, err := parseDatetime(req.Datetime)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid datetime_str")
	}

	layer, current, err := h.heatmapSvc.Refresh(c.UserContext(), service.HeatmapRefresh{
		CurrentSpeed:    req.CurrentSpeed,
		CongestionLevel: req.CongestionLevel,
		At:              at,
	})
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success": true,
		"current": current,
		"data":    layer,
	}
	if partial := layer.Result.Err(); partial != nil {
		resp["warning"] = partial.Error()
	}
	return c.JSON(resp)
}

// GetLatestHeatmap returns the most recent accepted layer
func (h *Handler) GetLatestHeatmap(c *fiber.Ctx) error {
	snap, ok := h.heatmapSvc.Latest()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "No heatmap has been generated yet")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    snap,
	})
}

// EstimateCommute runs route-then-predict
func (h *Handler) EstimateCommute(c *fiber.Ctx) error {
	var req CommuteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	in := service.CommuteRequest{
		Origin:          req.Origin,
		Destination:     req.Destination,
		SpeedMph:        req.SpeedMph,
		CongestionLevel: req.CongestionLevel,
	}
	if req.DepartAt != nil {
		in.DepartAt = *req.DepartAt
	}

	result, current, err := h.commuteSvc.Estimate(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"current": current,
		"data":    roundCommute(result),
	})
}

// GetLatestCommute returns the most recent accepted estimate
func (h *Handler) GetLatestCommute(c *fiber.Ctx) error {
	snap, ok := h.commuteSvc.Latest()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "No commute has been estimated yet")
	}
	snap.Value = roundCommute(snap.Value)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    snap,
	})
}

// GetCommuteHistory returns persisted estimates within a time range
func (h *Handler) GetCommuteHistory(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	data, err := h.commuteSvc.History(c.UserContext(), time.Duration(hours)*time.Hour)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch commute history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// parseDatetime accepts the model's datetime layout, with or without
// seconds, or RFC 3339. Empty means now.
func parseDatetime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range []string{service.DatetimeLayout, "2006-01-02T15:04", time.RFC3339} {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func roundCommute(r service.CommuteResult) service.CommuteResult {
	r.Summary.LengthMiles = utils.RoundTo(r.Summary.LengthMiles, 2)
	r.Summary.HeadingDeg = utils.RoundTo(r.Summary.HeadingDeg, 1)
	r.Summary.ReferenceMinutes = utils.RoundPtr(r.Summary.ReferenceMinutes, 1)
	r.Estimate = domain.CommuteEstimate{
		BaseMinutes:      utils.RoundPtr(r.Estimate.BaseMinutes, 1),
		PredictedMinutes: utils.RoundPtr(r.Estimate.PredictedMinutes, 1),
		DelayMinutes:     utils.RoundPtr(r.Estimate.DelayMinutes, 1),
		ReferenceMinutes: utils.RoundPtr(r.Estimate.ReferenceMinutes, 1),
	}
	r.TotalMinutes = r.Estimate.TotalMinutes()
	return r
}
