package postgres

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/smartcity/commute/internal/domain"
)

// SRID of every stored geometry (WGS84)
const SRID = 4326

// historyLimit caps GetCommuteHistory
const historyLimit = 100

//go:embed migrations/001_init.sql
var schemaSQL string

// Pool is the subset of pgxpool.Pool the repository uses
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool Pool
}

var _ domain.DataRepository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tables if they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return eris.Wrap(err, "postgres: ensure schema")
	}
	return nil
}

// SaveCommute persists a commute estimate with its route endpoints as PostGIS points
func (r *PostgresRepository) SaveCommute(ctx context.Context, rec domain.CommuteRecord) error {
	start, err := EncodePoint(rec.Summary.Start)
	if err != nil {
		return err
	}
	end, err := EncodePoint(rec.Summary.End)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO commute_estimates (
			id, origin, destination, start_geom, end_geom,
			length_miles, heading_deg, cardinal, reference_minutes,
			base_minutes, predicted_minutes, delay_minutes,
			speed_mph, congestion_level, depart_at, created_at
		) VALUES (
			$1, $2, $3, ST_GeomFromEWKB($4), ST_GeomFromEWKB($5),
			$6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.Origin, rec.Destination, start, end,
		rec.Summary.LengthMiles, rec.Summary.HeadingDeg, string(rec.Summary.Cardinal), rec.Summary.ReferenceMinutes,
		rec.Estimate.BaseMinutes, rec.Estimate.PredictedMinutes, rec.Estimate.DelayMinutes,
		rec.SpeedMph, rec.CongestionLevel, rec.DepartAt, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: failed to save commute estimate")
	}

	return nil
}

// GetCommuteHistory retrieves commute estimates created in [from, to], newest first
func (r *PostgresRepository) GetCommuteHistory(ctx context.Context, from, to time.Time) ([]domain.CommuteRecord, error) {
	query := `
		SELECT id, origin, destination, ST_AsEWKB(start_geom), ST_AsEWKB(end_geom),
			   length_miles, heading_deg, cardinal, reference_minutes,
			   base_minutes, predicted_minutes, delay_minutes,
			   speed_mph, congestion_level, depart_at, created_at
		FROM commute_estimates
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, historyLimit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: failed to query commute estimates")
	}
	defer rows.Close()

	results := make([]domain.CommuteRecord, 0)
	for rows.Next() {
		var (
			rec        domain.CommuteRecord
			start, end []byte
			cardinal   string
		)
		err := rows.Scan(
			&rec.ID, &rec.Origin, &rec.Destination, &start, &end,
			&rec.Summary.LengthMiles, &rec.Summary.HeadingDeg, &cardinal, &rec.Summary.ReferenceMinutes,
			&rec.Estimate.BaseMinutes, &rec.Estimate.PredictedMinutes, &rec.Estimate.DelayMinutes,
			&rec.SpeedMph, &rec.CongestionLevel, &rec.DepartAt, &rec.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: failed to scan commute row")
		}
		if rec.Summary.Start, err = DecodePoint(start); err != nil {
			return nil, err
		}
		if rec.Summary.End, err = DecodePoint(end); err != nil {
			return nil, err
		}
		rec.Summary.Cardinal = domain.Cardinal(cardinal)
		rec.Estimate.ReferenceMinutes = rec.Summary.ReferenceMinutes
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate commute rows")
	}

	return results, nil
}

// SaveHeatmapRun persists heatmap refresh metadata
func (r *PostgresRepository) SaveHeatmapRun(ctx context.Context, run domain.HeatmapRun) error {
	query := `
		INSERT INTO heatmap_runs (id, requested, received, realized_max, partial, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.Requested, run.Received, run.RealizedMax, run.Partial, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: failed to save heatmap run")
	}

	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "postgres: health check failed")
	}
	return nil
}

// EncodePoint converts a coordinate to EWKB bytes with SRID 4326 (x=lng, y=lat)
func EncodePoint(p domain.GeoPoint) ([]byte, error) {
	g := geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}).SetSRID(SRID)
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: encode point")
	}
	return data, nil
}

// DecodePoint parses an EWKB point back into a coordinate
func DecodePoint(data []byte) (domain.GeoPoint, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return domain.GeoPoint{}, eris.Wrap(err, "postgres: decode point")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return domain.GeoPoint{}, eris.Errorf("postgres: expected point, got %T", g)
	}
	return domain.GeoPoint{Lat: pt.Y(), Lng: pt.X()}, nil
}
