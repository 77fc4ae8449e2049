package ssebi

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jpkabala96/geeSSEBI/internal/forcing"
)

func TestAlignAcrossMidnight(t *testing.T) {
	late := time.Date(2022, 7, 14, 23, 40, 0, 0, time.UTC)
	sameDay := time.Date(2022, 7, 14, 0, 0, 0, 0, time.UTC)
	nextDay := time.Date(2022, 7, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		daily   time.Time
		wantErr error
	}{
		{"daily record of the rolled day", nextDay, nil},
		{"daily record of the acquisition day only", sameDay, ErrForcingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := modelScene(2, map[string][]float64{
				BandAlbedo:          {0.15, 0.25},
				BandEmissivity:      {0.975, 0.98},
				BandLongwaveEmitted: {450, 460},
			})
			s.Acquired = late
			src := forcing.NewMemorySource(
				forcing.Uniform(forcing.Hourly, nextDay, forcingBounds, hourlySW, hourlyLW),
				forcing.Uniform(forcing.Daily, tt.daily, forcingBounds, dailySW, dailyLW),
			)

			out, _, err := newTestPipeline(&fakeCatalog{}, src).Align(context.Background(), s)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Align: %v", err)
			}

			swI, _ := out.Band(BandShortwaveDownI)
			swD, _ := out.Band(BandShortwaveDownD)
			for i := 0; i < out.Grid.Len(); i++ {
				if got := swI.At(i); math.Abs(got-hourlySW/3600) > epsilon {
					t.Errorf("pixel %d: ShortwaveDownI = %v, want %v", i, got, hourlySW/3600)
				}
				if got := swD.At(i); got != dailySW {
					t.Errorf("pixel %d: ShortwaveDownD = %v, want %v", i, got, dailySW)
				}
			}
		})
	}
}
