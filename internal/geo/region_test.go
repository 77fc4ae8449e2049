package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  *Region
		wantErr error
	}{
		{name: "nil region", region: nil, wantErr: ErrEmptyRegion},
		{name: "no vertices", region: &Region{CRS: WGS84}, wantErr: ErrEmptyRegion},
		{
			name: "degenerate ring",
			region: NewRegion(WGS84, geom.Polygon{{
				{X: 10, Y: 43}, {X: 10.5, Y: 43}, {X: 10, Y: 43},
			}}),
			wantErr: ErrEmptyRegion,
		},
		{name: "rectangle", region: Rectangle(WGS84, 10.34, 43.51, 10.53, 43.66)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseGeoJSON(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		vertices int
		wantErr  bool
	}{
		{
			name:     "bare polygon",
			doc:      `{"type":"Polygon","coordinates":[[[10.34,43.66],[10.34,43.51],[10.53,43.51],[10.53,43.66],[10.34,43.66]]]}`,
			vertices: 5,
		},
		{
			name:     "feature",
			doc:      `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}`,
			vertices: 4,
		},
		{
			name:     "empty feature collection",
			doc:      `{"type":"FeatureCollection","features":[]}`,
			vertices: 0,
		},
		{
			name:    "point is rejected",
			doc:     `{"type":"Point","coordinates":[10,43]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			doc:     `polygon`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseGeoJSON([]byte(tt.doc))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Vertices() != tt.vertices {
				t.Errorf("expected %d vertices, got %d", tt.vertices, r.Vertices())
			}
			if r.CRS != WGS84 {
				t.Errorf("expected CRS %s, got %s", WGS84, r.CRS)
			}
		})
	}
}

func TestContains(t *testing.T) {
	r := Rectangle("EPSG:32632", 0, 0, 100, 50)

	if !r.Contains(10, 10) {
		t.Error("interior point reported outside")
	}
	if r.Contains(150, 10) {
		t.Error("exterior point reported inside")
	}
}

func TestProjString(t *testing.T) {
	tests := []struct {
		crs     string
		want    string
		wantErr bool
	}{
		{crs: "EPSG:4326", want: "+proj=longlat +datum=WGS84 +no_defs"},
		{crs: "EPSG:32632", want: "+proj=utm +zone=32 +datum=WGS84 +units=m +no_defs"},
		{crs: "epsg:32733", want: "+proj=utm +zone=33 +south +datum=WGS84 +units=m +no_defs"},
		{crs: "+proj=longlat", want: "+proj=longlat"},
		{crs: "EPSG:3857", wantErr: true},
		{crs: "UTM32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.crs, func(t *testing.T) {
			got, err := ProjString(tt.crs)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.crs)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRegionToUTM(t *testing.T) {
	// Zone 32 has its central meridian at 9°E; on the equator that maps to the
	// false easting.
	r := Rectangle(WGS84, 9, 0, 9.001, 0.001)
	utm, err := r.To("EPSG:32632")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	origin := utm.Polygons[0][0][0]
	if math.Abs(origin.X-500000) > 1 || math.Abs(origin.Y) > 1 {
		t.Errorf("expected (500000, 0), got (%.3f, %.3f)", origin.X, origin.Y)
	}
	if utm.CRS != "EPSG:32632" {
		t.Errorf("expected CRS to be updated, got %s", utm.CRS)
	}
}
