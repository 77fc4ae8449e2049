// Package charts samples a model run into the data behind the
// albedo/temperature scatter plot and the ET histogram.
package charts

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
)

// Scatter groups.
const (
	GroupRealData  = "real data"
	GroupMoisture  = "moisture"
	GroupRadiation = "radiation"
)

// DefaultSamples and DefaultSeed reproduce the plot of the web application.
const (
	DefaultSamples = 1000
	DefaultSeed    = 2
	DefaultBins    = 30
)

// Point is one dot of the scatter plot.
type Point struct {
	Group  string  `json:"group" msgpack:"group"`
	Albedo float64 `json:"albedo" msgpack:"albedo"`
	LST    float64 `json:"lst" msgpack:"lst"`
}

// Scatter samples up to n valid pixels and returns their albedo and LST in
// the "real data" group, plus the dry-edge ("moisture") and wet-edge
// ("radiation") temperatures at the same albedo. The sample only depends on
// seed and the scene.
func Scatter(s *raster.Scene, low, high ssebi.Line, n int, seed uint64) ([]Point, error) {
	bands, err := s.Bands(ssebi.BandAlbedo, ssebi.BandLST)
	if err != nil {
		return nil, err
	}
	albedo, lst := bands[0], bands[1]

	var candidates []int
	for i := 0; i < s.Grid.Len(); i++ {
		if s.Valid(i) && !math.IsNaN(albedo.At(i)) && !math.IsNaN(lst.At(i)) {
			candidates = append(candidates, i)
		}
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n >= 0 && n < len(candidates) {
		candidates = candidates[:n]
	}
	sort.Ints(candidates)

	out := make([]Point, 0, 3*len(candidates))
	for _, i := range candidates {
		out = append(out, Point{Group: GroupRealData, Albedo: albedo.At(i), LST: lst.At(i)})
	}
	for _, i := range candidates {
		a := albedo.At(i)
		out = append(out, Point{Group: GroupMoisture, Albedo: a, LST: high.At(a)})
	}
	for _, i := range candidates {
		a := albedo.At(i)
		out = append(out, Point{Group: GroupRadiation, Albedo: a, LST: low.At(a)})
	}
	return out, nil
}

// Histogram is a frequency histogram of one band.
type Histogram struct {
	Band string `json:"band" msgpack:"band"`
	// Edges has one more entry than Counts; bin k is [Edges[k], Edges[k+1]).
	Edges  []float64 `json:"edges" msgpack:"edges"`
	Counts []float64 `json:"counts" msgpack:"counts"`
}

// NewHistogram bins the finite valid values of a band into equal-width bins.
func NewHistogram(s *raster.Scene, band string, bins int) (*Histogram, error) {
	if bins <= 0 {
		bins = DefaultBins
	}
	b, err := s.Band(band)
	if err != nil {
		return nil, err
	}
	var values []float64
	for i := 0; i < s.Grid.Len(); i++ {
		if v := b.At(i); s.Valid(i) && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("band %s has no valid value", band)
	}
	sort.Float64s(values)

	lo, hi := values[0], values[len(values)-1]
	if hi == lo {
		hi = lo + 1
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	// The upper divider is exclusive.
	edges[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, edges, values, nil)
	return &Histogram{Band: band, Edges: edges, Counts: counts}, nil
}
