package forcing

import (
	"context"
	"time"

	"github.com/ctessum/geom"
)

// MemorySource serves fields held in memory, keyed by kind and time.
type MemorySource struct {
	fields map[Kind]map[time.Time]*Field
}

// NewMemorySource indexes the given fields. Daily fields are keyed by their
// day, hourly fields by their exact hour.
func NewMemorySource(fields ...*Field) *MemorySource {
	m := &MemorySource{fields: map[Kind]map[time.Time]*Field{Hourly: {}, Daily: {}}}
	for _, f := range fields {
		m.Add(f)
	}
	return m
}

// Add stores or replaces a field.
func (m *MemorySource) Add(f *Field) {
	key := f.Time.UTC()
	if f.Kind == Daily {
		key = Day(key)
	}
	m.fields[f.Kind][key] = f
}

// Hourly implements Source.
func (m *MemorySource) Hourly(ctx context.Context, day time.Time, hour int, _ *geom.Bounds) (*Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day = Day(day)
	if f, ok := m.fields[Hourly][day.Add(time.Duration(hour)*time.Hour)]; ok {
		return f, nil
	}
	return nil, unavailable(Hourly, day, hour)
}

// Daily implements Source.
func (m *MemorySource) Daily(ctx context.Context, day time.Time, _ *geom.Bounds) (*Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day = Day(day)
	if f, ok := m.fields[Daily][day]; ok {
		return f, nil
	}
	return nil, unavailable(Daily, day, 0)
}

// Uniform builds a field whose every cell carries the same values, covering
// the lat/lon box with a 0.1 degree grid.
func Uniform(kind Kind, t time.Time, b *geom.Bounds, shortwave, longwave float64) *Field {
	axis := func(lo, hi float64) []float64 {
		var out []float64
		for v := lo - 0.1; v <= hi+0.1+1e-9; v += 0.1 {
			out = append(out, v)
		}
		return out
	}
	f := NewField(kind, t, axis(b.Min.Y, b.Max.Y), axis(b.Min.X, b.Max.X))
	for i := range f.Shortwave.Elements {
		f.Shortwave.Elements[i] = shortwave
		f.Longwave.Elements[i] = longwave
	}
	return f
}
