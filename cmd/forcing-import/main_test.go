package main

import (
	"testing"
	"time"

	"github.com/jpkabala96/geeSSEBI/internal/forcing"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		in      string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"8.5,44.9,9.5,45.6", false, false},
		{"8.5, 44.9, 9.5, 45.6", false, false},
		{"8.5,44.9,9.5", false, true},
		{"9.5,44.9,8.5,45.6", false, true},
		{"a,b,c,d", false, true},
	}
	for _, tt := range tests {
		b, err := parseBBox(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBBox(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if (b == nil) != tt.wantNil {
			t.Errorf("parseBBox(%q) = %v", tt.in, b)
		}
		if b != nil && (b.Min.X != 8.5 || b.Max.Y != 45.6) {
			t.Errorf("parseBBox(%q) = %+v", tt.in, b)
		}
	}
}

func TestRecordTime(t *testing.T) {
	ts := time.Date(2021, 7, 14, 10, 30, 0, 0, time.UTC)
	if got := recordTime(forcing.Hourly, ts); !got.Equal(time.Date(2021, 7, 14, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("hourly = %v", got)
	}
	if got := recordTime(forcing.Daily, ts); !got.Equal(time.Date(2021, 7, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily = %v", got)
	}
}
