package ssebi

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jpkabala96/geeSSEBI/internal/sensor"
)

func TestRectify(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{0.999, 0.999},
		{1, 0},
		{1.2, 1},
		{42, 1},
	}
	for _, tt := range tests {
		if got := Rectify(tt.in); got != tt.want {
			t.Errorf("Rectify(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, in := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := Rectify(in); !math.IsNaN(got) {
			t.Errorf("Rectify(%v) = %v, want NaN", in, got)
		}
	}
}

func TestFractionalCover(t *testing.T) {
	tests := []struct {
		ndvi float64
		want float64
	}{
		{0, 0},
		{0.1, 0},
		{0.199, 0},
		{0.2, 0},
		{0.5, 0.25},
		{0.8, 1},
		{0.95, 1},
	}
	for _, tt := range tests {
		if got := FractionalCover(tt.ndvi); math.Abs(got-tt.want) > epsilon {
			t.Errorf("FractionalCover(%v) = %v, want %v", tt.ndvi, got, tt.want)
		}
	}
}

func TestEmissivityRange(t *testing.T) {
	for fc := 0.0; fc <= 1.0; fc += 0.01 {
		e := Emissivity(fc)
		if e < 0.971-epsilon || e > 0.982+epsilon {
			t.Fatalf("Emissivity(%v) = %v outside [0.971, 0.982]", fc, e)
		}
	}
	if math.Abs(Emissivity(0)-0.971) > epsilon || math.Abs(Emissivity(1)-0.982) > epsilon {
		t.Error("emissivity end points are wrong")
	}
}

func TestPrepareSceneRanges(t *testing.T) {
	for _, id := range []string{"L5", "L8", "L9"} {
		t.Run(id, func(t *testing.T) {
			c, err := sensor.Lookup(id)
			if err != nil {
				t.Fatal(err)
			}
			rng := rand.New(rand.NewPCG(7, uint64(len(id))))
			pixels := make([]pixel, 400)
			for i := range pixels {
				sr := make(map[string]float64)
				for _, b := range c.ReflectanceBands {
					sr[b] = -0.2 + 1.8*rng.Float64()
				}
				pixels[i] = pixel{sr: sr, lst: 260 + 90*rng.Float64()}
			}

			s, err := PrepareScene(context.Background(), rawScene("random", c, 20, pixels), c, 3)
			if err != nil {
				t.Fatal(err)
			}
			if names := s.BandNames(); len(names) != len(PreprocessedBands) {
				t.Fatalf("bands = %v, want %v", names, PreprocessedBands)
			}
			bands, _ := s.Bands(BandNDVI, BandFC, BandAlbedo, BandEmissivity, BandLST, BandAlbedoClass)
			checked := 0
			for i := 0; i < s.Grid.Len(); i++ {
				if !s.Valid(i) {
					continue
				}
				ndvi, fc, albedo := bands[0].At(i), bands[1].At(i), bands[2].At(i)
				if math.IsNaN(ndvi) || math.IsNaN(albedo) {
					continue
				}
				checked++
				for name, v := range map[string]float64{"NDVI": ndvi, "FC": fc, "albedo": albedo} {
					if v < 0 || v > 1 {
						t.Fatalf("pixel %d: %s = %v outside [0,1]", i, name, v)
					}
				}
				if ndvi < 0.2 && fc != 0 {
					t.Fatalf("pixel %d: FC = %v with NDVI %v", i, fc, ndvi)
				}
				if e := bands[3].At(i); e < 0.971-epsilon || e > 0.982+epsilon {
					t.Fatalf("pixel %d: emissivity %v", i, e)
				}
				if lst := bands[4].At(i); lst <= 273 || lst >= 340 {
					t.Fatalf("pixel %d: LST %v survived the temperature window", i, lst)
				}
				if cls := bands[5].At(i); cls != math.Round(albedo*100) {
					t.Fatalf("pixel %d: class %v for albedo %v", i, cls, albedo)
				}
			}
			if checked == 0 {
				t.Fatal("no pixel survived masking")
			}
		})
	}
}

func TestPrepareSceneMasks(t *testing.T) {
	c, _ := sensor.Lookup("L8")
	land := map[string]float64{"SR_B4": 0.08, "SR_B5": 0.30}
	water := map[string]float64{"SR_B3": 0.30, "SR_B5": 0.05}
	pixels := []pixel{
		{sr: land, lst: 300},
		{sr: land, lst: 300, qa: 8},      // cloud
		{sr: land, lst: 300, qa: 16},     // cloud shadow
		{sr: land, lst: 300, qa: 1 << 6}, // clear bit only
		{sr: land, lst: 300, radsat: 2},
		{sr: land, lst: 345},
		{sr: land, lst: 270},
		{sr: water, lst: 290},
		{sr: map[string]float64{"SR_B4": math.NaN(), "SR_B5": 0.30}, lst: 300}, // no red reflectance
		{sr: map[string]float64{"SR_B4": math.Inf(1), "SR_B5": 0.30}, lst: 300},
	}
	want := []bool{true, false, false, true, false, false, false, false, false, false}

	s, err := PrepareScene(context.Background(), rawScene("masks", c, 5, pixels), c, 1)
	if err != nil {
		t.Fatal(err)
	}
	albedo, _ := s.Band(BandAlbedo)
	for i, w := range want {
		if s.Valid(i) != w {
			t.Errorf("pixel %d valid = %v, want %v", i, s.Valid(i), w)
		}
		if !w && !math.IsNaN(albedo.At(i)) {
			t.Errorf("masked pixel %d has albedo %v", i, albedo.At(i))
		}
	}

	// 0.13·0.1 + 0.115·0.1 + 0.143·0.1 + 0.18·0.08 + 0.281·0.30
	if got := albedo.At(0); math.Abs(got-0.1375) > 1e-6 {
		t.Errorf("albedo = %v, want 0.1375", got)
	}
	ndvi, _ := s.Band(BandNDVI)
	if got := ndvi.At(0); math.Abs(got-0.22/0.38) > 1e-6 {
		t.Errorf("NDVI = %v, want %v", got, 0.22/0.38)
	}
	for i := range want {
		if v := ndvi.At(i); s.Valid(i) && !(v >= 0 && v <= 1) {
			t.Errorf("valid pixel %d has NDVI %v", i, v)
		}
	}
}

func TestWaterThresholdIsPerSensor(t *testing.T) {
	// NDWI of 0.1: land for L8 (threshold 0.2), water for L9 (threshold 0).
	sr := map[string]float64{"SR_B3": 0.22, "SR_B5": 0.18}
	for id, wantValid := range map[string]bool{"L8": true, "L9": false} {
		c, _ := sensor.Lookup(id)
		s, err := PrepareScene(context.Background(), rawScene("ndwi", c, 1, []pixel{{sr: sr, lst: 300}}), c, 1)
		if err != nil {
			t.Fatal(err)
		}
		if s.Valid(0) != wantValid {
			t.Errorf("%s: valid = %v, want %v", id, s.Valid(0), wantValid)
		}
	}
}
