package forcing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"go.uber.org/zap"
)

// Variables names the netCDF variables of one kind of file.
type Variables struct {
	Shortwave string
	Longwave  string
	Time      string
	Latitude  string
	Longitude string
	// Accumulated marks running sums that restart after 00 UTC, the
	// ERA5-Land convention: the 01 UTC value covers one hour, the 00 UTC
	// value the whole previous day.
	Accumulated bool
}

// DefaultHourlyVariables match raw ERA5-Land hourly downloads.
var DefaultHourlyVariables = Variables{
	Shortwave:   "ssrd",
	Longwave:    "strd",
	Time:        "time",
	Latitude:    "latitude",
	Longitude:   "longitude",
	Accumulated: true,
}

// DefaultDailyVariables match the ERA5-Land daily aggregates: downwelling
// shortwave sum and net thermal radiation sum.
var DefaultDailyVariables = Variables{
	Shortwave: "ssrd",
	Longwave:  "str",
	Time:      "time",
	Latitude:  "latitude",
	Longitude: "longitude",
}

// NetCDFSource reads classic-format netCDF files, one file per day. The
// templates contain [DATE] which is replaced with the day as YYYYMMDD.
type NetCDFSource struct {
	HourlyTemplate string
	DailyTemplate  string
	HourlyVars     Variables
	DailyVars      Variables
	logger         *zap.SugaredLogger
}

// NewNetCDFSource creates a source reading the default ERA5-Land variables.
func NewNetCDFSource(hourlyTemplate, dailyTemplate string, logger *zap.SugaredLogger) *NetCDFSource {
	return &NetCDFSource{
		HourlyTemplate: hourlyTemplate,
		DailyTemplate:  dailyTemplate,
		HourlyVars:     DefaultHourlyVariables,
		DailyVars:      DefaultDailyVariables,
		logger:         logger,
	}
}

// ExpandTemplate substitutes the day into a file template.
func ExpandTemplate(template string, day time.Time) string {
	return strings.ReplaceAll(template, "[DATE]", day.Format("20060102"))
}

// Hourly implements Source. Running accumulations are differenced with the
// preceding hour, which for 00 UTC lives in the previous day's file.
func (s *NetCDFSource) Hourly(ctx context.Context, day time.Time, hour int, bounds *geom.Bounds) (*Field, error) {
	day = Day(day)
	want := day.Add(time.Duration(hour) * time.Hour)
	missing := func() error { return unavailable(Hourly, day, hour) }

	cur, err := s.hourlyAt(ctx, want, bounds, missing)
	if err != nil || !s.HourlyVars.Accumulated || AccumulationRestarts(want) {
		return cur, err
	}
	prev, err := s.hourlyAt(ctx, want.Add(-time.Hour), bounds, missing)
	if err != nil {
		return nil, err
	}
	return Deaccumulate(cur, prev)
}

func (s *NetCDFSource) hourlyAt(ctx context.Context, t time.Time, bounds *geom.Bounds, missing func() error) (*Field, error) {
	return s.lookup(ctx, Hourly, ExpandTemplate(s.HourlyTemplate, Day(t)), s.HourlyVars, bounds,
		func(x time.Time) bool { return x.Equal(t) }, missing)
}

// Daily implements Source.
func (s *NetCDFSource) Daily(ctx context.Context, day time.Time, bounds *geom.Bounds) (*Field, error) {
	day = Day(day)
	return s.lookup(ctx, Daily, ExpandTemplate(s.DailyTemplate, day), s.DailyVars, bounds,
		func(t time.Time) bool { return Day(t).Equal(day) },
		func() error { return unavailable(Daily, day, 0) })
}

func (s *NetCDFSource) lookup(ctx context.Context, kind Kind, path string, vars Variables, bounds *geom.Bounds,
	match func(time.Time) bool, missing func() error) (*Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := OpenDataset(path, vars)
	if errors.Is(err, fs.ErrNotExist) {
		if s.logger != nil {
			s.logger.Debugw("forcing file missing", "kind", kind, "path", path)
		}
		return nil, missing()
	}
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	for k, t := range ds.Times {
		if match(t) {
			return ds.Field(k, kind, bounds)
		}
	}
	return nil, missing()
}

// Dataset is an open netCDF file with its decoded coordinate axes.
type Dataset struct {
	Lats  []float64
	Lons  []float64
	Times []time.Time

	vars Variables
	file *os.File
	cdf  *cdf.File
}

// OpenDataset opens a netCDF file and decodes its coordinates.
func OpenDataset(path string, vars Variables) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("while opening netCDF %s: %w", path, err)
	}
	ds := &Dataset{vars: vars, file: f, cdf: ff}

	if ds.Lats, err = ds.readAll(vars.Latitude); err != nil {
		ds.Close()
		return nil, err
	}
	if ds.Lons, err = ds.readAll(vars.Longitude); err != nil {
		ds.Close()
		return nil, err
	}
	if ds.Times, err = ds.readTimes(); err != nil {
		ds.Close()
		return nil, fmt.Errorf("while decoding time axis of %s: %w", path, err)
	}
	return ds, nil
}

// Close releases the file.
func (ds *Dataset) Close() error {
	return ds.file.Close()
}

// Field decodes record k, restricted to bounds (lon/lat) plus one cell of
// margin. A nil bounds keeps the whole grid.
func (ds *Dataset) Field(k int, kind Kind, bounds *geom.Bounds) (*Field, error) {
	i0, i1 := axisRange(ds.Lats, bounds, false)
	j0, j1 := axisRange(ds.Lons, bounds, true)
	if i1 <= i0 || j1 <= j0 {
		return nil, fmt.Errorf("%w: region outside the reanalysis grid", ErrUnavailable)
	}

	f := NewField(kind, ds.Times[k], ds.Lats[i0:i1], ds.Lons[j0:j1])
	var err error
	if err = ds.readSlab(ds.vars.Shortwave, k, i0, i1, j0, j1, f.Shortwave); err != nil {
		return nil, err
	}
	if err = ds.readSlab(ds.vars.Longwave, k, i0, i1, j0, j1, f.Longwave); err != nil {
		return nil, err
	}
	return f, nil
}

func axisRange(axis []float64, b *geom.Bounds, lon bool) (int, int) {
	if b == nil {
		return 0, len(axis)
	}
	lo, hi := b.Min.Y, b.Max.Y
	if lon {
		lo, hi = b.Min.X, b.Max.X
	}
	first, last := -1, -1
	for i, v := range axis {
		if v >= lo && v <= hi {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		// Region smaller than a cell: take the nearest one.
		c, ok := nearestIndex(axis, (lo+hi)/2)
		if !ok {
			return 0, 0
		}
		first, last = c, c
	}
	first = max(first-1, 0)
	last = min(last+1, len(axis)-1)
	return first, last + 1
}

func (ds *Dataset) readAll(name string) ([]float64, error) {
	dims := ds.cdf.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s not in file", name)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	r := ds.cdf.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("while reading %s: %w", name, err)
	}
	return ds.decode(name, buf)
}

// readSlab reads variable[k, i0:i1, j0:j1] into dst.
func (ds *Dataset) readSlab(name string, k, i0, i1, j0, j1 int, dst *sparse.DenseArray) error {
	dims := ds.cdf.Header.Lengths(name)
	if len(dims) != 3 {
		return fmt.Errorf("variable %s: expected (time, latitude, longitude), got %d dimensions", name, len(dims))
	}
	nlon := j1 - j0
	for i := i0; i < i1; i++ {
		r := ds.cdf.Reader(name, []int{k, i, j0}, []int{k + 1, i + 1, j1})
		buf := r.Zero(nlon)
		if _, err := r.Read(buf); err != nil {
			return fmt.Errorf("while reading %s: %w", name, err)
		}
		row, err := ds.decode(name, buf)
		if err != nil {
			return err
		}
		copy(dst.Elements[(i-i0)*nlon:(i-i0+1)*nlon], row)
	}
	return nil
}

// decode converts a raw buffer to float64, applying the CF packing and fill
// conventions.
func (ds *Dataset) decode(name string, buf interface{}) ([]float64, error) {
	var raw []float64
	switch v := buf.(type) {
	case []float64:
		raw = append([]float64(nil), v...)
	case []float32:
		raw = make([]float64, len(v))
		for i, x := range v {
			raw[i] = float64(x)
		}
	case []int32:
		raw = make([]float64, len(v))
		for i, x := range v {
			raw[i] = float64(x)
		}
	case []int16:
		raw = make([]float64, len(v))
		for i, x := range v {
			raw[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}

	fill, hasFill := ds.attr(name, "_FillValue")
	missing, hasMissing := ds.attr(name, "missing_value")
	scale, hasScale := ds.attr(name, "scale_factor")
	offset, _ := ds.attr(name, "add_offset")
	if !hasScale {
		scale = 1
	}
	for i, x := range raw {
		if (hasFill && x == fill) || (hasMissing && x == missing) {
			raw[i] = math.NaN()
			continue
		}
		raw[i] = x*scale + offset
	}
	return raw, nil
}

func (ds *Dataset) attr(name, attr string) (float64, bool) {
	switch v := ds.cdf.Header.GetAttribute(name, attr).(type) {
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int16:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	}
	return 0, false
}

func (ds *Dataset) readTimes() ([]time.Time, error) {
	name := ds.vars.Time
	if len(ds.cdf.Header.Lengths(name)) == 0 {
		// Newer CDS downloads call the axis valid_time.
		name = "valid_time"
	}
	values, err := ds.readAll(name)
	if err != nil {
		return nil, err
	}
	units, _ := ds.cdf.Header.GetAttribute(name, "units").(string)
	unit, ref, err := ParseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(values))
	for i, v := range values {
		out[i] = ref.Add(time.Duration(math.Round(v * float64(unit))))
	}
	return out, nil
}

// ParseTimeUnits decodes CF units such as "hours since 1900-01-01 00:00:00.0".
func ParseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("unrecognised time units %q", units)
	}
	var unit time.Duration
	switch strings.ToLower(parts[0]) {
	case "seconds", "second", "s":
		unit = time.Second
	case "minutes", "minute":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day":
		unit = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unrecognised time unit %q", parts[0])
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.0",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if ref, err := time.ParseInLocation(layout, strings.TrimSpace(parts[1]), time.UTC); err == nil {
			return unit, ref, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unrecognised reference time %q", parts[1])
}
