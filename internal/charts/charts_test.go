package charts

import (
	"math"
	"testing"
	"time"

	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
)

func scene(t *testing.T, albedo, lst []float64) *raster.Scene {
	t.Helper()
	g := raster.NewGrid("EPSG:32632", 0, 0, 100, len(albedo), 1)
	s := raster.NewScene("chart", "L8", time.Time{}, g)
	a := raster.NewBand(ssebi.BandAlbedo, g)
	l := raster.NewBand(ssebi.BandLST, g)
	copy(a.Data.Elements, albedo)
	copy(l.Data.Elements, lst)
	s, err := s.With(a, l)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestScatterGroups(t *testing.T) {
	s := scene(t, []float64{0.1, 0.2, math.NaN(), 0.3}, []float64{300, 310, 320, 326})
	low := ssebi.Line{Slope: 10, Intercept: 290}
	high := ssebi.Line{Slope: 100, Intercept: 300}

	points, err := Scatter(s, low, high, DefaultSamples, DefaultSeed)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 9 {
		t.Fatalf("got %d points, want 3 per group", len(points))
	}
	groups := map[string]int{}
	for _, p := range points {
		groups[p.Group]++
		switch p.Group {
		case GroupMoisture:
			if math.Abs(p.LST-high.At(p.Albedo)) > 1e-9 {
				t.Errorf("moisture point %+v is off the dry edge", p)
			}
		case GroupRadiation:
			if math.Abs(p.LST-low.At(p.Albedo)) > 1e-9 {
				t.Errorf("radiation point %+v is off the wet edge", p)
			}
		}
	}
	for _, g := range []string{GroupRealData, GroupMoisture, GroupRadiation} {
		if groups[g] != 3 {
			t.Errorf("group %q has %d points, want 3", g, groups[g])
		}
	}
}

func TestScatterSampleIsReproducible(t *testing.T) {
	albedo := make([]float64, 500)
	lst := make([]float64, 500)
	for i := range albedo {
		albedo[i] = float64(i) / 1000
		lst[i] = 290 + float64(i%37)
	}
	s := scene(t, albedo, lst)
	line := ssebi.Line{Slope: 1, Intercept: 1}

	a, err := Scatter(s, line, line, 50, DefaultSeed)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Scatter(s, line, line, 50, DefaultSeed)
	c, _ := Scatter(s, line, line, 50, DefaultSeed+1)
	if len(a) != 150 {
		t.Fatalf("got %d points, want 150", len(a))
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed gave different samples at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds gave identical samples")
	}
}

func TestHistogram(t *testing.T) {
	s := scene(t, []float64{0, 0.05, 0.15, 0.38, 0.4, math.NaN(), math.Inf(1)}, make([]float64, 7))
	h, err := NewHistogram(s, ssebi.BandAlbedo, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Edges) != 5 || len(h.Counts) != 4 {
		t.Fatalf("edges %v, counts %v", h.Edges, h.Counts)
	}
	var total float64
	for _, c := range h.Counts {
		total += c
	}
	if total != 5 {
		t.Errorf("histogram holds %v values, want 5", total)
	}
	if h.Counts[0] != 2 || h.Counts[2] != 0 || h.Counts[3] != 2 {
		t.Errorf("counts = %v, want [2 1 0 2]", h.Counts)
	}

	if _, err := NewHistogram(s, "ET_daily", 4); err == nil {
		t.Error("expected an error for a missing band")
	}
}
