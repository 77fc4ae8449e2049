// Package sensor describes the Landsat Collection 2 Level-2 products the model
// accepts. The sensors differ only in band naming, the water index pair and
// threshold, and the broadband albedo formula, so each is a single record.
package sensor

import (
	"fmt"
	"sort"
	"strings"
)

// ID names a supported sensor.
type ID string

const (
	L5 ID = "L5"
	L8 ID = "L8"
	L9 ID = "L9"
)

// Quality band names common to every Collection 2 Level-2 product.
const (
	QAPixel  = "QA_PIXEL"
	QARadSat = "QA_RADSAT"
)

// Weight is one term of the albedo weighted sum.
type Weight struct {
	Band   string
	Factor float64
}

// Coefficients is everything that varies between sensors.
type Coefficients struct {
	ID         ID
	Spacecraft string // SPACECRAFT_ID in the product metadata

	ReflectanceBands  []string
	ReflectanceScale  float64
	ReflectanceOffset float64
	ThermalBand       string
	ThermalScale      float64
	ThermalOffset     float64

	Red string
	NIR string

	// Pixels are kept as land only while (WaterA−WaterB)/(WaterA+WaterB) is
	// below WaterThreshold.
	WaterA         string
	WaterB         string
	WaterThreshold float64

	Albedo         []Weight
	AlbedoConstant float64
}

// RawBands lists every product band a scene must provide.
func (c Coefficients) RawBands() []string {
	out := append([]string(nil), c.ReflectanceBands...)
	return append(out, c.ThermalBand, QAPixel, QARadSat)
}

const (
	c2ReflectanceScale  = 0.0000275
	c2ReflectanceOffset = -0.2
	c2ThermalScale      = 0.00341802
	c2ThermalOffset     = 149.0
)

var registry = map[ID]Coefficients{
	// Landsat 5 TM. Albedo after Liang (2001).
	L5: {
		ID:                L5,
		Spacecraft:        "LANDSAT_5",
		ReflectanceBands:  []string{"SR_B1", "SR_B2", "SR_B3", "SR_B4", "SR_B5", "SR_B7"},
		ReflectanceScale:  c2ReflectanceScale,
		ReflectanceOffset: c2ReflectanceOffset,
		ThermalBand:       "ST_B6",
		ThermalScale:      c2ThermalScale,
		ThermalOffset:     c2ThermalOffset,
		Red:               "SR_B3",
		NIR:               "SR_B4",
		WaterA:            "SR_B2",
		WaterB:            "SR_B5",
		WaterThreshold:    0.0,
		Albedo: []Weight{
			{"SR_B1", 0.356},
			{"SR_B3", 0.130},
			{"SR_B4", 0.373},
			{"SR_B5", 0.085},
			{"SR_B7", 0.072},
		},
		AlbedoConstant: -0.0018,
	},
	L8: {
		ID:                L8,
		Spacecraft:        "LANDSAT_8",
		ReflectanceBands:  []string{"SR_B1", "SR_B2", "SR_B3", "SR_B4", "SR_B5", "SR_B6", "SR_B7"},
		ReflectanceScale:  c2ReflectanceScale,
		ReflectanceOffset: c2ReflectanceOffset,
		ThermalBand:       "ST_B10",
		ThermalScale:      c2ThermalScale,
		ThermalOffset:     c2ThermalOffset,
		Red:               "SR_B4",
		NIR:               "SR_B5",
		WaterA:            "SR_B3",
		WaterB:            "SR_B5",
		WaterThreshold:    0.2,
		Albedo: []Weight{
			{"SR_B1", 0.13},
			{"SR_B2", 0.115},
			{"SR_B3", 0.143},
			{"SR_B4", 0.18},
			{"SR_B5", 0.281},
		},
	},
	L9: {
		ID:                L9,
		Spacecraft:        "LANDSAT_9",
		ReflectanceBands:  []string{"SR_B1", "SR_B2", "SR_B3", "SR_B4", "SR_B5", "SR_B6", "SR_B7"},
		ReflectanceScale:  c2ReflectanceScale,
		ReflectanceOffset: c2ReflectanceOffset,
		ThermalBand:       "ST_B10",
		ThermalScale:      c2ThermalScale,
		ThermalOffset:     c2ThermalOffset,
		Red:               "SR_B4",
		NIR:               "SR_B5",
		WaterA:            "SR_B3",
		WaterB:            "SR_B5",
		WaterThreshold:    0.0,
		Albedo: []Weight{
			{"SR_B1", 0.13},
			{"SR_B2", 0.115},
			{"SR_B3", 0.143},
			{"SR_B4", 0.18},
			{"SR_B5", 0.281},
		},
	},
}

// Lookup returns the coefficients of a sensor. Names are case-insensitive and
// the LANDSAT_n spacecraft identifiers are accepted too.
func Lookup(name string) (Coefficients, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if c, ok := registry[ID(n)]; ok {
		return c, nil
	}
	for _, c := range registry {
		if c.Spacecraft == n {
			return c, nil
		}
	}
	return Coefficients{}, fmt.Errorf("unknown sensor %q (supported: %s)", name, strings.Join(Supported(), ", "))
}

// Supported lists the sensor identifiers in sorted order.
func Supported() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}
