// Package landsat reads Landsat Collection 2 Level-2 products unpacked into a
// directory tree: one *_MTL.json metadata file per product next to its band
// GeoTIFFs.
package landsat

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
)

// Product is one scene as described by its metadata file.
type Product struct {
	ID         string
	Dir        string
	Spacecraft string
	Acquired   time.Time
	CloudCover float64

	CRS      string
	CellSize float64
	// UL and LR are the centres of the corner pixels, in CRS units.
	ULX, ULY float64
	LRX, LRY float64
	Samples  int
	Lines    int

	// Footprint is the lon/lat bounding box of the four scene corners.
	Footprint *geom.Bounds

	files map[string]string
}

// File returns the path of a band such as SR_B4 or QA_PIXEL.
func (p Product) File(band string) (string, bool) {
	f, ok := p.files[band]
	return f, ok
}

type mtlDocument struct {
	Metadata struct {
		ProductContents map[string]interface{} `json:"PRODUCT_CONTENTS"`
		Image           map[string]interface{} `json:"IMAGE_ATTRIBUTES"`
		Projection      map[string]interface{} `json:"PROJECTION_ATTRIBUTES"`
	} `json:"LANDSAT_METADATA_FILE"`
}

type attrs map[string]interface{}

func (a attrs) str(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return strings.TrimSpace(fmt.Sprint(v)), nil
}

func (a attrs) float(key string) (float64, error) {
	s, err := a.str(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// ParseMTL reads a *_MTL.json file.
func ParseMTL(path string) (Product, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Product{}, err
	}
	var doc mtlDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return Product{}, fmt.Errorf("error parsing %s: %w", path, err)
	}
	p, err := productFrom(doc, filepath.Dir(path))
	if err != nil {
		return Product{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	return p, nil
}

func productFrom(doc mtlDocument, dir string) (Product, error) {
	contents := attrs(doc.Metadata.ProductContents)
	image := attrs(doc.Metadata.Image)
	proj := attrs(doc.Metadata.Projection)

	p := Product{Dir: dir, files: make(map[string]string)}
	var err error
	if p.ID, err = contents.str("LANDSAT_PRODUCT_ID"); err != nil {
		return p, err
	}
	if p.Spacecraft, err = image.str("SPACECRAFT_ID"); err != nil {
		return p, err
	}
	if p.CloudCover, err = image.float("CLOUD_COVER"); err != nil {
		return p, err
	}
	if p.Acquired, err = acquisitionTime(image); err != nil {
		return p, err
	}

	zone, err := proj.float("UTM_ZONE")
	if err != nil {
		return p, err
	}
	p.CRS = geo.UTMNorth(int(zone))

	for key, dst := range map[string]*float64{
		"GRID_CELL_SIZE_REFLECTIVE":      &p.CellSize,
		"CORNER_UL_PROJECTION_X_PRODUCT": &p.ULX,
		"CORNER_UL_PROJECTION_Y_PRODUCT": &p.ULY,
		"CORNER_LR_PROJECTION_X_PRODUCT": &p.LRX,
		"CORNER_LR_PROJECTION_Y_PRODUCT": &p.LRY,
	} {
		if *dst, err = proj.float(key); err != nil {
			return p, err
		}
	}
	lines, err := proj.float("REFLECTIVE_LINES")
	if err != nil {
		return p, err
	}
	samples, err := proj.float("REFLECTIVE_SAMPLES")
	if err != nil {
		return p, err
	}
	p.Lines, p.Samples = int(lines), int(samples)

	p.Footprint = &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, corner := range []string{"UL", "UR", "LL", "LR"} {
		lat, err := proj.float("CORNER_" + corner + "_LAT_PRODUCT")
		if err != nil {
			return p, err
		}
		lon, err := proj.float("CORNER_" + corner + "_LON_PRODUCT")
		if err != nil {
			return p, err
		}
		p.Footprint.Min.X = math.Min(p.Footprint.Min.X, lon)
		p.Footprint.Min.Y = math.Min(p.Footprint.Min.Y, lat)
		p.Footprint.Max.X = math.Max(p.Footprint.Max.X, lon)
		p.Footprint.Max.Y = math.Max(p.Footprint.Max.Y, lat)
	}

	// Band files are named <product>_<band>.TIF.
	for _, v := range contents {
		name, ok := v.(string)
		if !ok || !strings.HasSuffix(strings.ToUpper(name), ".TIF") {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		band := strings.TrimPrefix(base, p.ID+"_")
		if band == base {
			continue
		}
		p.files[band] = filepath.Join(dir, name)
	}
	return p, nil
}

func acquisitionTime(image attrs) (time.Time, error) {
	date, err := image.str("DATE_ACQUIRED")
	if err != nil {
		return time.Time{}, err
	}
	clock, err := image.str("SCENE_CENTER_TIME")
	if err != nil {
		return time.Time{}, err
	}
	clock = strings.TrimSuffix(strings.Trim(clock, `"`), "Z")
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("acquisition time: %w", err)
	}
	return t, nil
}
