// Package forcing provides downwelling radiation from the ERA5-Land
// reanalysis, hourly and as daily aggregates, on the reanalysis lat/lon grid.
package forcing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// ErrUnavailable is returned when no record matches the requested day/hour.
var ErrUnavailable = errors.New("forcing unavailable")

// Kind distinguishes hourly records from daily aggregates.
type Kind string

const (
	Hourly Kind = "hourly"
	Daily  Kind = "daily"
)

// Field is one reanalysis record: shortwave and longwave radiation on a
// regular lat/lon grid. Hourly fields hold J/m² accumulated over the hour,
// daily fields the accumulated daily sums.
type Field struct {
	Kind      Kind
	Time      time.Time
	Lats      []float64
	Lons      []float64
	Shortwave *sparse.DenseArray // [len(Lats), len(Lons)]
	Longwave  *sparse.DenseArray
}

// NewField allocates a field over the given axes with every value NaN.
func NewField(kind Kind, t time.Time, lats, lons []float64) *Field {
	f := &Field{
		Kind:      kind,
		Time:      t,
		Lats:      lats,
		Lons:      lons,
		Shortwave: sparse.ZerosDense(len(lats), len(lons)),
		Longwave:  sparse.ZerosDense(len(lats), len(lons)),
	}
	for i := range f.Shortwave.Elements {
		f.Shortwave.Elements[i] = math.NaN()
		f.Longwave.Elements[i] = math.NaN()
	}
	return f
}

// Nearest returns the values of the grid cell closest to (lon, lat). ok is
// false when the point is more than one cell outside the grid or the cell has
// no data.
func (f *Field) Nearest(lon, lat float64) (shortwave, longwave float64, ok bool) {
	i, iok := nearestIndex(f.Lats, lat)
	j, jok := nearestIndex(f.Lons, lon)
	if !iok || !jok {
		return math.NaN(), math.NaN(), false
	}
	sw := f.Shortwave.Get(i, j)
	lw := f.Longwave.Get(i, j)
	if math.IsNaN(sw) || math.IsNaN(lw) {
		return sw, lw, false
	}
	return sw, lw, true
}

// nearestIndex finds the closest entry of a monotonic axis.
func nearestIndex(axis []float64, v float64) (int, bool) {
	n := len(axis)
	switch n {
	case 0:
		return 0, false
	case 1:
		return 0, true
	}
	step := math.Abs(axis[1] - axis[0])
	asc := axis[n-1] >= axis[0]
	k := sort.Search(n, func(i int) bool {
		if asc {
			return axis[i] >= v
		}
		return axis[i] <= v
	})
	best := -1
	for _, c := range []int{k - 1, k} {
		if c < 0 || c >= n {
			continue
		}
		if best < 0 || math.Abs(axis[c]-v) < math.Abs(axis[best]-v) {
			best = c
		}
	}
	if math.Abs(axis[best]-v) > step {
		return 0, false
	}
	return best, true
}

// Source looks up reanalysis records. Implementations return ErrUnavailable
// (possibly wrapped) when the requested record does not exist.
type Source interface {
	// Hourly returns the record of the given UTC day and hour-of-day.
	Hourly(ctx context.Context, day time.Time, hour int, bounds *geom.Bounds) (*Field, error)
	// Daily returns the daily aggregate of the given UTC day.
	Daily(ctx context.Context, day time.Time, bounds *geom.Bounds) (*Field, error)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AcquisitionHour returns the UTC day and the hour-of-day (0–23) nearest to
// t. A time rounding up to 24:00 belongs to hour 0 of the next day.
func AcquisitionHour(t time.Time) (day time.Time, hour int) {
	day = Day(t)
	hour = int(math.Round(float64(t.UTC().Sub(day)) / float64(time.Hour)))
	if hour == 24 {
		return day.AddDate(0, 0, 1), 0
	}
	return day, hour
}

func unavailable(kind Kind, day time.Time, hour int) error {
	if kind == Hourly {
		return fmt.Errorf("%w: no %s record for %s %02d:00 UTC", ErrUnavailable, kind, day.Format(time.DateOnly), hour)
	}
	return fmt.Errorf("%w: no %s record for %s", ErrUnavailable, kind, day.Format(time.DateOnly))
}
