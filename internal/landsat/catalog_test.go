package landsat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/tiff"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/internal/sensor"
)

type fixture struct {
	id         string
	spacecraft string
	acquired   time.Time
	cloud      float64
}

// writeProduct writes a 4x4 product at 30 m whose upper-left pixel centre is
// (500015, 5000105) in UTM zone 32. Band k holds 1000*k + col + 10*row.
func writeProduct(t *testing.T, root string, f fixture, bands []string) {
	t.Helper()
	dir := filepath.Join(root, f.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	contents := map[string]string{"LANDSAT_PRODUCT_ID": f.id}
	for k, band := range bands {
		name := f.id + "_" + band + ".TIF"
		contents[fmt.Sprintf("FILE_NAME_%d", k)] = name

		img := image.NewGray16(image.Rect(0, 0, 4, 4))
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				v := uint16(1000*k + col + 10*row)
				img.Pix[img.PixOffset(col, row)] = byte(v >> 8)
				img.Pix[img.PixOffset(col, row)+1] = byte(v)
			}
		}
		out, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := tiff.Encode(out, img, nil); err != nil {
			t.Fatal(err)
		}
		out.Close()
	}

	doc := map[string]interface{}{
		"LANDSAT_METADATA_FILE": map[string]interface{}{
			"PRODUCT_CONTENTS": contents,
			"IMAGE_ATTRIBUTES": map[string]string{
				"SPACECRAFT_ID":     f.spacecraft,
				"CLOUD_COVER":       fmt.Sprintf("%.2f", f.cloud),
				"DATE_ACQUIRED":     f.acquired.Format("2006-01-02"),
				"SCENE_CENTER_TIME": f.acquired.Format("15:04:05.0000000") + "Z",
			},
			"PROJECTION_ATTRIBUTES": map[string]string{
				"UTM_ZONE":                       "32",
				"GRID_CELL_SIZE_REFLECTIVE":      "30.00",
				"REFLECTIVE_LINES":               "4",
				"REFLECTIVE_SAMPLES":             "4",
				"CORNER_UL_PROJECTION_X_PRODUCT": "500015.000",
				"CORNER_UL_PROJECTION_Y_PRODUCT": "5000105.000",
				"CORNER_LR_PROJECTION_X_PRODUCT": "500105.000",
				"CORNER_LR_PROJECTION_Y_PRODUCT": "5000015.000",
				"CORNER_UL_LAT_PRODUCT":          "45.30",
				"CORNER_UL_LON_PRODUCT":          "8.90",
				"CORNER_UR_LAT_PRODUCT":          "45.30",
				"CORNER_UR_LON_PRODUCT":          "9.10",
				"CORNER_LL_LAT_PRODUCT":          "45.00",
				"CORNER_LL_LON_PRODUCT":          "8.90",
				"CORNER_LR_LAT_PRODUCT":          "45.00",
				"CORNER_LR_LON_PRODUCT":          "9.10",
			},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, f.id+"_MTL.json"), b, 0o644); err != nil {
		t.Fatal(err)
	}
}

func testRegion() *geo.Region {
	return geo.Rectangle(geo.UTMNorth(32), 500030, 5000030, 500090, 5000090)
}

func TestParseMTL(t *testing.T) {
	root := t.TempDir()
	acquired := time.Date(2022, 7, 14, 10, 12, 33, 123456700, time.UTC)
	writeProduct(t, root, fixture{"LC08_L2SP_194028_20220714_20220722_02_T1", "LANDSAT_8", acquired, 5}, []string{"SR_B4"})

	p, err := ParseMTL(filepath.Join(root, "LC08_L2SP_194028_20220714_20220722_02_T1", "LC08_L2SP_194028_20220714_20220722_02_T1_MTL.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !p.Acquired.Equal(acquired) {
		t.Errorf("Acquired = %v, want %v", p.Acquired, acquired)
	}
	if p.CRS != "EPSG:32632" || p.Samples != 4 || p.Lines != 4 || p.CellSize != 30 {
		t.Errorf("unexpected projection attributes: %+v", p)
	}
	if _, ok := p.File("SR_B4"); !ok {
		t.Error("SR_B4 file not indexed")
	}
	g := p.Grid()
	if g.GeoTransform[0] != 500000 || g.GeoTransform[3] != 5000120 {
		t.Errorf("grid origin = (%v, %v), want (500000, 5000120)", g.GeoTransform[0], g.GeoTransform[3])
	}
}

func TestCatalogFind(t *testing.T) {
	root := t.TempDir()
	day := func(d int) time.Time { return time.Date(2022, 7, d, 10, 12, 0, 0, time.UTC) }
	fixtures := []fixture{
		{"LC08_A_20220714", "LANDSAT_8", day(14), 5},
		{"LC08_B_20220730", "LANDSAT_8", day(30), 80},
		{"LC09_C_20220720", "LANDSAT_9", day(20), 0},
		{"LC08_D_20220601", "LANDSAT_8", time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC), 0},
		{"LC08_E_20220706", "LANDSAT_8", day(6), 10},
	}
	for _, f := range fixtures {
		writeProduct(t, root, f, nil)
	}

	l8, _ := sensor.Lookup("L8")
	c := NewCatalog(root, 50, 2, log.Nop())
	got, err := c.Find(context.Background(), l8, day(1), time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC), testRegion())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"LC08_E_20220706", "LC08_A_20220714"}
	if len(got) != len(want) {
		t.Fatalf("Find returned %d products, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("product %d = %s, want %s", i, got[i].ID, want[i])
		}
	}

	far := geo.Rectangle(geo.WGS84, 12, 41, 12.1, 41.1)
	got, err = c.Find(context.Background(), l8, day(1), day(31), far)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Find outside the footprint returned %d products", len(got))
	}
}

func TestCatalogLoad(t *testing.T) {
	root := t.TempDir()
	l8, _ := sensor.Lookup("L8")
	id := "LC08_A_20220714"
	writeProduct(t, root, fixture{id, "LANDSAT_8", time.Date(2022, 7, 14, 10, 12, 0, 0, time.UTC), 5}, l8.RawBands())

	c := NewCatalog(root, 0, 0, log.Nop())
	products, err := c.Products(context.Background())
	if err != nil || len(products) != 1 {
		t.Fatalf("Products = %v, %v", products, err)
	}
	s, err := c.Load(context.Background(), products[0], l8, testRegion())
	if err != nil {
		t.Fatal(err)
	}
	if s.Grid.Cols != 2 || s.Grid.Rows != 2 {
		t.Fatalf("window is %dx%d, want 2x2", s.Grid.Cols, s.Grid.Rows)
	}
	if s.Grid.GeoTransform[0] != 500030 || s.Grid.GeoTransform[3] != 5000090 {
		t.Errorf("window origin = (%v, %v)", s.Grid.GeoTransform[0], s.Grid.GeoTransform[3])
	}

	// SR_B4 is the fourth raw band (k = 3); window pixel (0,0) is product pixel (1,1).
	b, err := s.Band("SR_B4")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.At(0); got != 3011 {
		t.Errorf("SR_B4[0] = %v, want 3011", got)
	}
	if got := b.At(s.Grid.Index(1, 1)); got != 3022 {
		t.Errorf("SR_B4[3] = %v, want 3022", got)
	}

	outside := geo.Rectangle(geo.UTMNorth(32), 600000, 4000000, 600100, 4000100)
	if _, err := c.Load(context.Background(), products[0], l8, outside); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("Load outside error = %v, want ErrNoOverlap", err)
	}
}
