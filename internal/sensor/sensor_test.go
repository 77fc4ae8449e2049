package sensor

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		thermal   string
		threshold float64
		wantErr   bool
	}{
		{name: "L5", thermal: "ST_B6", threshold: 0.0},
		{name: "l8", thermal: "ST_B10", threshold: 0.2},
		{name: "LANDSAT_9", thermal: "ST_B10", threshold: 0.0},
		{name: "L7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Lookup(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.ThermalBand != tt.thermal {
				t.Errorf("expected thermal band %s, got %s", tt.thermal, c.ThermalBand)
			}
			if c.WaterThreshold != tt.threshold {
				t.Errorf("expected NDWI threshold %v, got %v", tt.threshold, c.WaterThreshold)
			}
		})
	}
}

func TestAlbedoBandsAreLoaded(t *testing.T) {
	for _, id := range Supported() {
		c, _ := Lookup(id)
		loaded := map[string]bool{}
		for _, b := range c.RawBands() {
			loaded[b] = true
		}
		for _, w := range c.Albedo {
			if !loaded[w.Band] {
				t.Errorf("%s: albedo band %s is not among the raw bands", id, w.Band)
			}
		}
		for _, b := range []string{c.Red, c.NIR, c.WaterA, c.WaterB} {
			if !loaded[b] {
				t.Errorf("%s: index band %s is not among the raw bands", id, b)
			}
		}
	}
}
