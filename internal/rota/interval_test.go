package rota_test

import (
	"testing"
	"time"

	"rota-go/internal/rota"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 15, hour, min, 0, 0, time.UTC)
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b rota.Interval
		want bool
	}{
		{"partial overlap", rota.Interval{Start: at(9, 0), End: at(13, 0)}, rota.Interval{Start: at(12, 0), End: at(16, 0)}, true},
		{"contained", rota.Interval{Start: at(9, 0), End: at(17, 0)}, rota.Interval{Start: at(10, 0), End: at(11, 0)}, true},
		{"touching", rota.Interval{Start: at(9, 0), End: at(13, 0)}, rota.Interval{Start: at(13, 0), End: at(17, 0)}, false},
		{"disjoint", rota.Interval{Start: at(9, 0), End: at(10, 0)}, rota.Interval{Start: at(11, 0), End: at(12, 0)}, false},
		{"identical", rota.Interval{Start: at(9, 0), End: at(10, 0)}, rota.Interval{Start: at(9, 0), End: at(10, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGapHours(t *testing.T) {
	prev := rota.Interval{Start: at(14, 0), End: at(22, 0)}

	tests := []struct {
		name string
		next rota.Interval
		want float64
	}{
		{"next morning", rota.Interval{Start: at(22, 0).Add(9 * time.Hour), End: at(22, 0).Add(17 * time.Hour)}, 9},
		{"half hour", rota.Interval{Start: at(22, 30), End: at(23, 0)}, 0.5},
		{"overlapping is negative", rota.Interval{Start: at(21, 0), End: at(23, 0)}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rota.GapHours(prev, tt.next); got != tt.want {
				t.Errorf("GapHours() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWholeMinutes(t *testing.T) {
	if got := rota.WholeMinutes(10*time.Minute + 59*time.Second); got != 10 {
		t.Errorf("WholeMinutes() = %d, want 10", got)
	}
	if got := rota.WholeMinutes(30 * time.Second); got != 0 {
		t.Errorf("WholeMinutes() = %d, want 0", got)
	}
}

func TestInterval_Duration(t *testing.T) {
	i := rota.Interval{Start: at(9, 0), End: at(17, 30)}
	if got := i.Duration(); got != 8*time.Hour+30*time.Minute {
		t.Errorf("Duration() = %v, want 8h30m", got)
	}
}
