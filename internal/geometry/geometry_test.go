package geometry

import (
	"math"
	"testing"
)

func TestRatioRectToPixels(t *testing.T) {
	tests := []struct {
		name  string
		ratio RatioRect
		imgW  int
		imgH  int
		want  Rect
	}{
		{
			name:  "simple quarter",
			ratio: RatioRect{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5},
			imgW:  1000,
			imgH:  800,
			want:  Rect{X: 250, Y: 200, W: 500, H: 400},
		},
		{
			name:  "truncates toward zero",
			ratio: RatioRect{X: 0.046, Y: 0.058, Width: 0.462, Height: 0.037},
			imgW:  2163,
			imgH:  1355,
			want:  Rect{X: 99, Y: 78, W: 999, H: 50},
		},
		{
			name:  "full image",
			ratio: RatioRect{X: 0, Y: 0, Width: 1, Height: 1},
			imgW:  640,
			imgH:  480,
			want:  Rect{X: 0, Y: 0, W: 640, H: 480},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ratio.ToPixels(tt.imgW, tt.imgH)
			if got != tt.want {
				t.Errorf("ToPixels() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRectExpand(t *testing.T) {
	r := Rect{X: 100, Y: 200, W: 300, H: 50}
	got := r.Expand(0.2)
	want := Rect{X: 40, Y: 190, W: 420, H: 70}
	if got != want {
		t.Errorf("Expand(0.2) = %+v, want %+v", got, want)
	}
}

func TestRectExpandClampsOrigin(t *testing.T) {
	r := Rect{X: 10, Y: 5, W: 300, H: 100}
	got := r.Expand(0.5)
	if got.X != 0 || got.Y != 0 {
		t.Errorf("expected origin clamped at zero, got (%d,%d)", got.X, got.Y)
	}
	if got.W != 600 || got.H != 200 {
		t.Errorf("expected size (600,200), got (%d,%d)", got.W, got.H)
	}
}

func TestRectExpandZeroTolerance(t *testing.T) {
	r := Rect{X: 100, Y: 100, W: 200, H: 80}
	if got := r.Expand(0); got != r {
		t.Errorf("Expand(0) = %+v, want unchanged %+v", got, r)
	}
}

func TestContainsPointInclusiveBounds(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 60, 45, true},
		{"left edge", 10, 45, true},
		{"right edge", 110, 45, true},
		{"top edge", 60, 20, true},
		{"bottom edge", 60, 70, true},
		{"corner", 110, 70, true},
		{"just outside right", 110.5, 45, false},
		{"just outside top", 60, 19.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ContainsPoint(tt.x, tt.y); got != tt.want {
				t.Errorf("ContainsPoint(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestContainsCenter(t *testing.T) {
	roi := Rect{X: 0, Y: 0, W: 200, H: 200}

	inside := Rect{X: 50, Y: 50, W: 20, H: 20}
	if !roi.ContainsCenter(inside) {
		t.Error("expected center of inner box to be contained")
	}

	// Box whose corner overlaps but whose center is outside
	straddling := Rect{X: 190, Y: 190, W: 100, H: 100}
	if roi.ContainsCenter(straddling) {
		t.Error("expected straddling box center to be outside")
	}
}

func TestRectCenter(t *testing.T) {
	r := Rect{X: 100, Y: 79, W: 999, H: 50}
	cx, cy := r.Center()
	if cx != 599.5 || cy != 104 {
		t.Errorf("Center() = (%v,%v), want (599.5,104)", cx, cy)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(0, 0, 3, 4); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
	if d := Distance(1, 1, 1, 1); d != 0 {
		t.Errorf("Distance of identical points = %v, want 0", d)
	}
}

func TestDiagonal(t *testing.T) {
	got := Diagonal(2163, 1355)
	want := math.Sqrt(2163*2163 + 1355*1355)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Diagonal = %v, want %v", got, want)
	}
}

func TestTranslate(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	got := r.Translate(-5, 15)
	want := Rect{X: 5, Y: 35, W: 30, H: 40}
	if got != want {
		t.Errorf("Translate = %+v, want %+v", got, want)
	}
}
