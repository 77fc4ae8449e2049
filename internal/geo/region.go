// Package geo holds the region of interest and the coordinate reference
// systems the model works in.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
)

// ErrEmptyRegion is returned for a region without vertices or without area.
var ErrEmptyRegion = errors.New("region has no vertices or zero area")

// Region is a polygonal area of interest in a known CRS.
type Region struct {
	Polygons geom.MultiPolygon
	CRS      string
}

// NewRegion wraps polygons expressed in crs.
func NewRegion(crs string, polygons ...geom.Polygon) *Region {
	return &Region{Polygons: geom.MultiPolygon(polygons), CRS: crs}
}

// Rectangle builds an axis-aligned region, the shape the drawing tools
// produce most often.
func Rectangle(crs string, minX, minY, maxX, maxY float64) *Region {
	return NewRegion(crs, geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}})
}

// ParseGeoJSON decodes a WGS84 Polygon or MultiPolygon. A Feature or a
// FeatureCollection is accepted as well; the geometries of all features are
// merged into one region.
func ParseGeoJSON(b []byte) (*Region, error) {
	var probe struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
		Features []struct {
			Geometry json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}

	var raw []json.RawMessage
	switch probe.Type {
	case "Feature":
		raw = append(raw, probe.Geometry)
	case "FeatureCollection":
		for _, f := range probe.Features {
			raw = append(raw, f.Geometry)
		}
	default:
		raw = append(raw, b)
	}

	r := &Region{CRS: WGS84}
	for _, g := range raw {
		if len(g) == 0 || string(g) == "null" {
			continue
		}
		decoded, err := geojson.Decode(g)
		if err != nil {
			return nil, fmt.Errorf("invalid GeoJSON geometry: %w", err)
		}
		switch t := decoded.(type) {
		case geom.Polygon:
			r.Polygons = append(r.Polygons, t)
		case geom.MultiPolygon:
			r.Polygons = append(r.Polygons, t...)
		default:
			return nil, fmt.Errorf("unsupported geometry type %T; a polygon is required", decoded)
		}
	}
	return r, nil
}

// Vertices counts the vertices of all rings.
func (r *Region) Vertices() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Polygons {
		for _, ring := range p {
			n += len(ring)
		}
	}
	return n
}

// Validate returns ErrEmptyRegion when the region cannot bound any pixel.
func (r *Region) Validate() error {
	if r.Vertices() == 0 {
		return ErrEmptyRegion
	}
	if a := r.Polygons.Area(); a == 0 || math.IsNaN(a) {
		return ErrEmptyRegion
	}
	return nil
}

// Bounds returns the bounding box of the region.
func (r *Region) Bounds() *geom.Bounds {
	return r.Polygons.Bounds()
}

// Contains reports whether the point lies inside or on the edge of the region.
func (r *Region) Contains(x, y float64) bool {
	return geom.Point{X: x, Y: y}.Within(r.Polygons) != geom.Outside
}

// To reprojects every vertex into crs.
func (r *Region) To(crs string) (*Region, error) {
	if SameCRS(r.CRS, crs) {
		return r, nil
	}
	t, err := NewTransform(r.CRS, crs)
	if err != nil {
		return nil, err
	}
	out := &Region{CRS: crs, Polygons: make(geom.MultiPolygon, len(r.Polygons))}
	for i, p := range r.Polygons {
		poly := make(geom.Polygon, len(p))
		for j, ring := range p {
			pts := make([]geom.Point, len(ring))
			for k, pt := range ring {
				x, y, err := t(pt.X, pt.Y)
				if err != nil {
					return nil, fmt.Errorf("while reprojecting region to %s: %w", crs, err)
				}
				pts[k] = geom.Point{X: x, Y: y}
			}
			poly[j] = pts
		}
		out.Polygons[i] = poly
	}
	return out, nil
}

// Overlaps reports whether two bounding boxes share any area or edge.
func Overlaps(a, b *geom.Bounds) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
