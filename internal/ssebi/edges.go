package ssebi

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
)

// Line is LST = Slope·albedo + Intercept.
type Line struct {
	Slope     float64 `json:"slope" msgpack:"slope"`
	Intercept float64 `json:"intercept" msgpack:"intercept"`
}

// At evaluates the line.
func (l Line) At(albedo float64) float64 { return l.Slope*albedo + l.Intercept }

// EdgeSample is the albedo and surface temperature range of one albedo class.
type EdgeSample struct {
	Class     int     `json:"class" msgpack:"class"`
	Count     int     `json:"count" msgpack:"count"`
	AlbedoMin float64 `json:"albedoMin" msgpack:"albedoMin"`
	AlbedoMax float64 `json:"albedoMax" msgpack:"albedoMax"`
	LSTMin    float64 `json:"lstMin" msgpack:"lstMin"`
	LSTMax    float64 `json:"lstMax" msgpack:"lstMax"`
}

type extrema struct {
	count  int
	albedo span
	lst    span
}

// span is a running minimum and maximum.
type span struct {
	min, max float64
	ok       bool
}

func (s *span) widen(lo, hi float64) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return
	}
	if !s.ok {
		s.min, s.max, s.ok = lo, hi, true
		return
	}
	s.min = math.Min(s.min, lo)
	s.max = math.Max(s.max, hi)
}

func (s span) values() (float64, float64) {
	if !s.ok {
		return constants.NoData, constants.NoData
	}
	return s.min, s.max
}

func (e *extrema) add(albedo, lst float64) {
	e.count++
	e.albedo.widen(albedo, albedo)
	e.lst.widen(lst, lst)
}

func (e *extrema) merge(o *extrema) {
	e.count += o.count
	if o.albedo.ok {
		e.albedo.widen(o.albedo.min, o.albedo.max)
	}
	if o.lst.ok {
		e.lst.widen(o.lst.min, o.lst.max)
	}
}

// EdgeSamples reduces the scene to one sample per albedo class present.
// Reductions that see no valid value report constants.NoData.
func EdgeSamples(ctx context.Context, s *raster.Scene, workers int) ([]EdgeSample, error) {
	bands, err := s.Bands(BandAlbedoClass, BandAlbedo, BandLST)
	if err != nil {
		return nil, err
	}
	class, albedo, lst := bands[0], bands[1], bands[2]

	partial := make([]map[int]*extrema, len(raster.Tiles(s.Grid)))
	err = raster.ForEachTile(ctx, s.Grid, workers, func(_ context.Context, idx int, t raster.Tile) error {
		m := make(map[int]*extrema)
		for i := t.Row0 * s.Grid.Cols; i < t.Row1*s.Grid.Cols; i++ {
			c := class.At(i)
			if !s.Valid(i) || math.IsNaN(c) {
				continue
			}
			e, ok := m[int(c)]
			if !ok {
				e = &extrema{}
				m[int(c)] = e
			}
			e.add(albedo.At(i), lst.At(i))
		}
		partial[idx] = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged := make(map[int]*extrema)
	for _, m := range partial {
		for c, e := range m {
			if acc, ok := merged[c]; ok {
				acc.merge(e)
			} else {
				merged[c] = e
			}
		}
	}

	out := make([]EdgeSample, 0, len(merged))
	for c, e := range merged {
		sample := EdgeSample{Class: c, Count: e.count}
		sample.AlbedoMin, sample.AlbedoMax = e.albedo.values()
		sample.LSTMin, sample.LSTMax = e.lst.values()
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out, nil
}

// FitEdges fits the wet edge (lstMin on albedoMin, samples with
// albedoMin > rt) and the dry edge (lstMax on albedoMax, samples with
// albedoMax > mt) by ordinary least squares.
func FitEdges(samples []EdgeSample, rt, mt float64) (low, high Line, err error) {
	var lx, ly, hx, hy []float64
	for _, s := range samples {
		if s.AlbedoMin > rt {
			lx = append(lx, s.AlbedoMin)
			ly = append(ly, s.LSTMin)
		}
		if s.AlbedoMax > mt {
			hx = append(hx, s.AlbedoMax)
			hy = append(hy, s.LSTMax)
		}
	}
	if low, err = fitLine(lx, ly); err != nil {
		return Line{}, Line{}, fmt.Errorf("wet edge: %w", err)
	}
	if high, err = fitLine(hx, hy); err != nil {
		return Line{}, Line{}, fmt.Errorf("dry edge: %w", err)
	}
	return low, high, nil
}

func fitLine(x, y []float64) (Line, error) {
	if len(x) < 2 {
		return Line{}, fmt.Errorf("%w: %d qualifying samples", ErrDegenerateRegression, len(x))
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if !isFinite(slope) || !isFinite(intercept) {
		return Line{}, fmt.Errorf("%w: samples share a single albedo", ErrDegenerateRegression)
	}
	return Line{Slope: slope, Intercept: intercept}, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
