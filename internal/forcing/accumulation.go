package forcing

import (
	"fmt"
	"time"
)

// AccumulationRestarts reports whether a running accumulation stamped t
// covers only the hour ending at t. ERA5-Land restarts its sums after
// 00 UTC, so that is the 01 UTC record.
func AccumulationRestarts(t time.Time) bool {
	return t.UTC().Hour() == 1
}

// Deaccumulate returns the amount of the hour ending at cur.Time from two
// consecutive running sums on the same grid. Differences below zero come
// from packing noise and are clipped.
func Deaccumulate(cur, prev *Field) (*Field, error) {
	if len(cur.Lats) != len(prev.Lats) || len(cur.Lons) != len(prev.Lons) {
		return nil, fmt.Errorf("cannot difference %s and %s: grids differ (%dx%d vs %dx%d)",
			cur.Time.Format(time.RFC3339), prev.Time.Format(time.RFC3339),
			len(cur.Lats), len(cur.Lons), len(prev.Lats), len(prev.Lons))
	}
	out := NewField(cur.Kind, cur.Time, cur.Lats, cur.Lons)
	diff := func(dst, a, b []float64) {
		for i := range dst {
			d := a[i] - b[i]
			if d < 0 {
				d = 0
			}
			dst[i] = d
		}
	}
	diff(out.Shortwave.Elements, cur.Shortwave.Elements, prev.Shortwave.Elements)
	diff(out.Longwave.Elements, cur.Longwave.Elements, prev.Longwave.Elements)
	return out, nil
}

// Deaccumulator turns a time-ordered stream of running sums into hourly
// amounts.
type Deaccumulator struct {
	prev *Field
}

// Next returns the hourly amount of f. ok is false when f needs the
// preceding hour and that record has not been seen.
func (d *Deaccumulator) Next(f *Field) (hourly *Field, ok bool, err error) {
	prev := d.prev
	d.prev = f
	if AccumulationRestarts(f.Time) {
		return f, true, nil
	}
	if prev == nil || !prev.Time.Equal(f.Time.Add(-time.Hour)) {
		return nil, false, nil
	}
	if hourly, err = Deaccumulate(f, prev); err != nil {
		return nil, false, err
	}
	return hourly, true, nil
}
