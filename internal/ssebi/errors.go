package ssebi

import (
	"errors"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
)

var (
	// ErrNoSceneFound means no scene of the sensor matched the date range and
	// region, or none kept a valid pixel after masking.
	ErrNoSceneFound = errors.New("no scene found")
	// ErrForcingUnavailable means the reanalysis has no record for the
	// acquisition day or hour.
	ErrForcingUnavailable = errors.New("forcing unavailable")
	// ErrDegenerateRegression means an edge fit had fewer than two samples.
	ErrDegenerateRegression = errors.New("degenerate edge regression")
	// ErrEmptyRegion means the region has no vertices or no area.
	ErrEmptyRegion = geo.ErrEmptyRegion
)

// Error kinds reported to callers.
const (
	KindNoSceneFound         = "no_scene_found"
	KindForcingUnavailable   = "forcing_unavailable"
	KindDegenerateRegression = "degenerate_regression"
	KindEmptyRegion          = "empty_region"
	KindInternal             = "internal"
)

// Kind maps an error returned by the pipeline to a stable code. A nil error
// has no kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyRegion):
		return KindEmptyRegion
	case errors.Is(err, ErrNoSceneFound):
		return KindNoSceneFound
	case errors.Is(err, ErrForcingUnavailable):
		return KindForcingUnavailable
	case errors.Is(err, ErrDegenerateRegression):
		return KindDegenerateRegression
	default:
		return KindInternal
	}
}
