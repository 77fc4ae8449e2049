package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// WGS84 is the CRS of region geometries and of the reanalysis grid.
const WGS84 = "EPSG:4326"

// EPSGCode returns the numeric EPSG code of a CRS written as "EPSG:nnnn".
func EPSGCode(crs string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(crs))
	if !strings.HasPrefix(s, "EPSG:") {
		return 0, fmt.Errorf("CRS %q is not an EPSG code", crs)
	}
	code, err := strconv.Atoi(strings.TrimPrefix(s, "EPSG:"))
	if err != nil {
		return 0, fmt.Errorf("CRS %q: %w", crs, err)
	}
	return code, nil
}

// ProjString converts a CRS identifier into a proj4 definition. WGS84
// geographic and the WGS84 UTM zones (EPSG:326NN north, EPSG:327NN south) are
// supported; strings already in proj4 form are passed through.
func ProjString(crs string) (string, error) {
	if strings.HasPrefix(strings.TrimSpace(crs), "+proj") {
		return crs, nil
	}
	code, err := EPSGCode(crs)
	if err != nil {
		return "", err
	}
	switch {
	case code == 4326:
		return "+proj=longlat +datum=WGS84 +no_defs", nil
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600), nil
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700), nil
	}
	return "", fmt.Errorf("unsupported CRS %s", crs)
}

// UTMNorth returns the EPSG identifier of a northern WGS84 UTM zone.
func UTMNorth(zone int) string {
	return fmt.Sprintf("EPSG:%d", 32600+zone)
}

// SameCRS reports whether two CRS identifiers name the same reference system.
func SameCRS(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NewTransform returns a coordinate transformer from one CRS to another.
// Identical systems get an identity transform.
func NewTransform(from, to string) (proj.Transformer, error) {
	if SameCRS(from, to) {
		return func(x, y float64) (float64, float64, error) { return x, y, nil }, nil
	}
	src, err := parseSR(from)
	if err != nil {
		return nil, err
	}
	dst, err := parseSR(to)
	if err != nil {
		return nil, err
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("while creating transform %s -> %s: %w", from, to, err)
	}
	return t, nil
}

func parseSR(crs string) (*proj.SR, error) {
	def, err := ProjString(crs)
	if err != nil {
		return nil, err
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("while parsing %s: %w", crs, err)
	}
	return sr, nil
}
