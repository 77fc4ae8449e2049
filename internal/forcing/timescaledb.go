package forcing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ctessum/geom"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jpkabala96/geeSSEBI/internal/database"
)

// TimescaleSource serves records previously imported into TimescaleDB with
// forcing-import.
type TimescaleSource struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewTimescaleSource wraps an open connection.
func NewTimescaleSource(db *gorm.DB, logger *zap.SugaredLogger) *TimescaleSource {
	return &TimescaleSource{db: db, logger: logger}
}

// Hourly implements Source.
func (s *TimescaleSource) Hourly(ctx context.Context, day time.Time, hour int, bounds *geom.Bounds) (*Field, error) {
	day = Day(day)
	f, err := s.query(ctx, Hourly, day.Add(time.Duration(hour)*time.Hour), bounds)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, unavailable(Hourly, day, hour)
	}
	return f, nil
}

// Daily implements Source.
func (s *TimescaleSource) Daily(ctx context.Context, day time.Time, bounds *geom.Bounds) (*Field, error) {
	day = Day(day)
	f, err := s.query(ctx, Daily, day, bounds)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, unavailable(Daily, day, 0)
	}
	return f, nil
}

// margin widens the bounding box so that border pixels still find a cell.
const margin = 0.25

func (s *TimescaleSource) query(ctx context.Context, kind Kind, ts time.Time, bounds *geom.Bounds) (*Field, error) {
	q := s.db.WithContext(ctx).
		Where("kind = ? AND ts = ?", string(kind), ts)
	if bounds != nil {
		q = q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			bounds.Min.Y-margin, bounds.Max.Y+margin, bounds.Min.X-margin, bounds.Max.X+margin)
	}

	var rows []database.ForcingRecord
	if err := q.Order("latitude DESC, longitude ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying %s: %w", database.ForcingTable, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	s.logger.Debugw("forcing rows loaded", "kind", kind, "ts", ts, "rows", len(rows))
	return fieldFromRecords(kind, ts, rows), nil
}

// fieldFromRecords rebuilds a regular grid from cell rows. Cells missing
// from the table stay NaN.
func fieldFromRecords(kind Kind, ts time.Time, rows []database.ForcingRecord) *Field {
	latSet := make(map[float64]struct{})
	lonSet := make(map[float64]struct{})
	for _, r := range rows {
		latSet[r.Latitude] = struct{}{}
		lonSet[r.Longitude] = struct{}{}
	}
	lats := sortedKeys(latSet)
	lons := sortedKeys(lonSet)
	// ERA5 convention: latitude descending.
	sort.Sort(sort.Reverse(sort.Float64Slice(lats)))

	latIdx := make(map[float64]int, len(lats))
	for i, v := range lats {
		latIdx[v] = i
	}
	lonIdx := make(map[float64]int, len(lons))
	for j, v := range lons {
		lonIdx[v] = j
	}

	f := NewField(kind, ts, lats, lons)
	for _, r := range rows {
		// DenseArray.Set skips zeros, which would leave the NaN fill.
		k := f.Shortwave.Index1d(latIdx[r.Latitude], lonIdx[r.Longitude])
		f.Shortwave.Elements[k] = r.Shortwave
		f.Longwave.Elements[k] = r.Longwave
	}
	return f
}

func sortedKeys(m map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// Records flattens a field into table rows, skipping no-data cells.
func Records(f *Field) []database.ForcingRecord {
	out := make([]database.ForcingRecord, 0, len(f.Lats)*len(f.Lons))
	for i, lat := range f.Lats {
		for j, lon := range f.Lons {
			sw, lw := f.Shortwave.Get(i, j), f.Longwave.Get(i, j)
			if sw != sw || lw != lw {
				continue
			}
			out = append(out, database.ForcingRecord{
				Kind:      string(f.Kind),
				Time:      f.Time,
				Latitude:  lat,
				Longitude: lon,
				Shortwave: sw,
				Longwave:  lw,
			})
		}
	}
	return out
}
