package s2

import (
	"math"
	"testing"

	"github.com/golang/geo/s1"
)

func TestDefaults(t *testing.T) {
	tests := []struct {
		metric LengthMetric
		want   float64
	}{
		{MinAngleSpan, 4. / 3},
		{MaxAngleSpan, 1.704897179199218452},
		{AvgAngleSpan, math.Pi / 2},
		{MinWidth, 2 * math.Sqrt(2) / 3},
		{MaxWidth, MaxAngleSpan.Deriv},
		{AvgWidth, 1.434523672886099389},
		{MinEdge, 2 * math.Sqrt(2) / 3},
		{MaxEdge, MaxAngleSpan.Deriv},
		{AvgEdge, 1.459213746386106062},
		{MinDiag, 8 * math.Sqrt(2) / 9},
		{MaxDiag, 2.438654594434021032},
		{AvgDiag, 2.060422738998471683},
	}
	for _, test := range tests {
		got := test.metric.Deriv
		if math.Abs(got-test.want) > 1e-14 {
			t.Errorf("%v.Deriv = %v, want %v", test.metric, got, test.want)
		}
	}
}

func TestLengthMetricValue(t *testing.T) {
	tests := []struct {
		metric LengthMetric
		level  int
		want   float64
	}{
		{NewLengthMetric(1.0), 1, 0.5},
		{NewLengthMetric(1.0), 2, 0.25},
		{NewLengthMetric(2.0), 1, 1.0},
		{NewLengthMetric(2.0), 2, 0.5},
	}
	for _, test := range tests {
		got := test.metric.Value(test.level)
		if math.Abs(got-test.want) > 1e-14 {
			t.Errorf("%v.Value(%d) = %v, want %v", test.metric, test.level, got, test.want)
		}
	}
}

func TestLengthMetricClosestLevel(t *testing.T) {
	tests := []struct {
		metric LengthMetric
		value  float64
		want   int
	}{
		{NewLengthMetric(1.0), 1.0, 0},
		{NewLengthMetric(1.0), .25, 2},
		{NewLengthMetric(2.0), 1.0, 1},
		{NewLengthMetric(2.0), 0.5, 2},
	}
	for _, test := range tests {
		got := test.metric.ClosestLevel(test.value)
		if got != test.want {
			t.Errorf("%v.ClosestLevel(%f) = %v, want %v", test.metric, test.value, got, test.want)
		}
	}
}

func TestMetricLevelBounds(t *testing.T) {
	// MinLevel and MaxLevel are exact at the level boundaries.
	for level := 0; level <= maxLevel; level++ {
		want := level
		if got := MinWidth.MinLevel(MinWidth.Value(level)); got != want {
			t.Errorf("MinWidth.MinLevel(MinWidth.Value(%d)) = %d, want %d", level, got, want)
		}
		if got := MinWidth.MaxLevel(MinWidth.Value(level)); got != want {
			t.Errorf("MinWidth.MaxLevel(MinWidth.Value(%d)) = %d, want %d", level, got, want)
		}
		if got := AvgArea.MinLevel(AvgArea.Value(level)); got != want {
			t.Errorf("AvgArea.MinLevel(AvgArea.Value(%d)) = %d, want %d", level, got, want)
		}
	}
	if got := MaxEdge.MinLevel(0); got != maxLevel {
		t.Errorf("MaxEdge.MinLevel(0) = %d, want %d", got, maxLevel)
	}
	if got := MaxEdge.MinLevel(100); got != 0 {
		t.Errorf("MaxEdge.MinLevel(100) = %d, want 0", got)
	}
	if got := MaxEdge.MaxLevel(100); got != 0 {
		t.Errorf("MaxEdge.MaxLevel(100) = %d, want 0", got)
	}
}

func TestMetricDims(t *testing.T) {
	if got := MaxEdge.Dim(); got != 1 {
		t.Errorf("MaxEdge.Dim() = %d, want 1", got)
	}
	if got := AvgArea.Dim(); got != 2 {
		t.Errorf("AvgArea.Dim() = %d, want 2", got)
	}
	// Six faces cover the sphere.
	if got := 6 * AverageArea(0); math.Abs(got-4*math.Pi) > 1e-14 {
		t.Errorf("6 * AverageArea(0) = %v, want 4π", got)
	}
	if got := AverageArea(3) * 64; math.Abs(got-AverageArea(0)) > 1e-14 {
		t.Errorf("AverageArea(3) * 64 = %v, want %v", got, AverageArea(0))
	}
}

func TestClosestLevelAngle(t *testing.T) {
	tests := []struct {
		angle s1.Angle
		want  int
	}{
		{2 * s1.Radian, 0},
		{s1.Angle(MaxEdge.Value(10)), 10},
		{s1.Angle(MaxEdge.Value(20)), 20},
		{s1.Angle(1e-20), maxLevel},
	}
	for _, test := range tests {
		if got := MaxEdge.ClosestLevelAngle(test.angle); got != test.want {
			t.Errorf("MaxEdge.ClosestLevelAngle(%v) = %d, want %d", test.angle, got, test.want)
		}
	}
}
