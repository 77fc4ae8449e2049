package raster

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateBand is returned when a band name is added twice.
	ErrDuplicateBand = errors.New("band already present")
	// ErrBandNotFound is returned when a stage asks for a band the scene lacks.
	ErrBandNotFound = errors.New("band not found")
)

// Scene is a stack of co-registered bands plus a pixel mask. Scenes are never
// changed in place: adding bands or narrowing the mask yields a new Scene that
// shares the untouched band data with its parent.
type Scene struct {
	Grid     Grid
	ID       string
	Sensor   string
	Acquired time.Time

	valid []bool
	bands map[string]*Band
	order []string
}

// NewScene creates a scene over g with every pixel valid and no bands.
func NewScene(id, sensor string, acquired time.Time, g Grid) *Scene {
	valid := make([]bool, g.Len())
	for i := range valid {
		valid[i] = true
	}
	return &Scene{
		Grid:     g,
		ID:       id,
		Sensor:   sensor,
		Acquired: acquired,
		valid:    valid,
		bands:    make(map[string]*Band),
	}
}

func (s *Scene) derive() *Scene {
	c := *s
	c.bands = make(map[string]*Band, len(s.bands))
	for k, v := range s.bands {
		c.bands[k] = v
	}
	c.order = append([]string(nil), s.order...)
	return &c
}

// With returns a scene extended by bands. A name already in the scene, or
// repeated in bands, fails with ErrDuplicateBand.
func (s *Scene) With(bands ...*Band) (*Scene, error) {
	c := s.derive()
	for _, b := range bands {
		if _, ok := c.bands[b.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBand, b.Name)
		}
		if len(b.Data.Elements) != s.Grid.Len() {
			return nil, fmt.Errorf("band %s has %d pixels, grid has %d", b.Name, len(b.Data.Elements), s.Grid.Len())
		}
		c.bands[b.Name] = b
		c.order = append(c.order, b.Name)
	}
	return c, nil
}

// Select returns a scene restricted to the named bands, in the given order.
func (s *Scene) Select(names ...string) (*Scene, error) {
	c := s.derive()
	c.bands = make(map[string]*Band, len(names))
	c.order = c.order[:0]
	for _, n := range names {
		b, ok := s.bands[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBandNotFound, n)
		}
		if _, dup := c.bands[n]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBand, n)
		}
		c.bands[n] = b
		c.order = append(c.order, n)
	}
	return c, nil
}

// Band returns the named band.
func (s *Scene) Band(name string) (*Band, error) {
	b, ok := s.bands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBandNotFound, name)
	}
	return b, nil
}

// Bands looks up several bands at once.
func (s *Scene) Bands(names ...string) ([]*Band, error) {
	out := make([]*Band, len(names))
	for i, n := range names {
		b, err := s.Band(n)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// BandNames lists band names in insertion order.
func (s *Scene) BandNames() []string {
	return append([]string(nil), s.order...)
}

// Valid reports whether pixel i survived masking.
func (s *Scene) Valid(i int) bool { return s.valid[i] }

// ValidCount returns the number of unmasked pixels.
func (s *Scene) ValidCount() int {
	n := 0
	for _, v := range s.valid {
		if v {
			n++
		}
	}
	return n
}

// UpdateMask returns a scene whose mask additionally excludes every pixel for
// which keep returns false. keep is only evaluated for currently valid pixels.
func (s *Scene) UpdateMask(keep func(i int) bool) *Scene {
	c := s.derive()
	c.valid = make([]bool, len(s.valid))
	for i, v := range s.valid {
		c.valid[i] = v && keep(i)
	}
	return c
}

// WithMask returns a scene using the given mask ANDed with the current one.
func (s *Scene) WithMask(mask []bool) *Scene {
	return s.UpdateMask(func(i int) bool { return mask[i] })
}
