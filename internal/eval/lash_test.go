package eval

import (
	"math"
	"testing"
	"time"
)

func TestNewRecordWeightedSum(t *testing.T) {
	tests := []struct {
		name         string
		l, a, s, h   float64
		wantWeighted float64
		wantDims     bool
		wantOverall  bool
	}{
		{
			name: "perfect scores",
			l:    1, a: 1, s: 1, h: 1,
			wantWeighted: 1.0,
			wantDims:     true,
			wantOverall:  true,
		},
		{
			name: "boundary pass",
			l:    0.6, a: 0.7, s: 0.6, h: 0.7,
			wantWeighted: 0.67,
			wantDims:     true,
			wantOverall:  true,
		},
		{
			name: "single dimension veto",
			l:    1, a: 1, s: 1, h: 0.5,
			wantWeighted: 0.85,
			wantDims:     false,
			wantOverall:  false,
		},
		{
			name: "all dimensions pass but weighted below floor",
			l:    0.6, a: 0.7, s: 0.6, h: 0.7,
			wantWeighted: 0.67,
			wantDims:     true,
			wantOverall:  true,
		},
		{
			name: "low latency vetoes",
			l:    0.5, a: 1, s: 1, h: 1,
			wantWeighted: 0.95,
			wantDims:     false,
			wantOverall:  false,
		},
		{
			name: "all zero",
			l:    0, a: 0, s: 0, h: 0,
			wantWeighted: 0,
			wantDims:     false,
			wantOverall:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord(tt.l, tt.a, tt.s, tt.h)
			if math.Abs(r.WeightedScore-tt.wantWeighted) > 1e-9 {
				t.Errorf("WeightedScore = %v, want %v", r.WeightedScore, tt.wantWeighted)
			}
			if r.DimensionsPassed != tt.wantDims {
				t.Errorf("DimensionsPassed = %v, want %v", r.DimensionsPassed, tt.wantDims)
			}
			if r.OverallPassed != tt.wantOverall {
				t.Errorf("OverallPassed = %v, want %v", r.OverallPassed, tt.wantOverall)
			}
		})
	}
}

func TestNewRecordKeepsRawScores(t *testing.T) {
	r := NewRecord(0.9, 0.8, 0.7, 0.6)
	if r.Latency != 0.9 || r.Accuracy != 0.8 || r.Safety != 0.7 || r.Helpfulness != 0.6 {
		t.Errorf("raw scores not preserved: %+v", r)
	}
}

func TestLatencyScore(t *testing.T) {
	thresholds := DefaultLatencyThresholds()
	tests := []struct {
		latency time.Duration
		want    float64
	}{
		{500 * time.Millisecond, 1.0},
		{1900 * time.Millisecond, 1.0},
		{2 * time.Second, 1.0}, // boundary of the linear region
		{3500 * time.Millisecond, 0.75},
		{4999 * time.Millisecond, 0.50016666},
		{5 * time.Second, 0.5},
		{7 * time.Second, 0.3},
		{10 * time.Second, 0.0},
		{30 * time.Second, 0.0}, // clamped, never negative
	}
	for _, tt := range tests {
		got := thresholds.Score(tt.latency)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("Score(%v) = %v, want %v", tt.latency, got, tt.want)
		}
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		reply   string
		want    float64
		wantErr bool
	}{
		{"0.85", 0.85, false},
		{"Score: 0.7", 0.7, false},
		{"1", 1, false},
		{"I'd rate this 0.9 overall.", 0.9, false},
		{"2.5", 1, false}, // clamped
		{"no number here", 0, true},
	}
	for _, tt := range tests {
		got, err := parseScore(tt.reply)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseScore(%q) error = %v, wantErr %v", tt.reply, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseScore(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}
