package geometry

import "math"

// Rect is an axis-aligned rectangle in pixel coordinates. Rectangles are the
// unit of geometric reasoning throughout the extractor.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"width"`
	H int `json:"height"`
}

// RatioRect describes a rectangle as fractions of the full image, each
// component in [0,1].
type RatioRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToPixels converts a ratio rectangle to pixel coordinates for an image of
// the given size. Components are truncated to integers.
func (r RatioRect) ToPixels(imgW, imgH int) Rect {
	return Rect{
		X: int(r.X * float64(imgW)),
		Y: int(r.Y * float64(imgH)),
		W: int(r.Width * float64(imgW)),
		H: int(r.Height * float64(imgH)),
	}
}

// Center returns the center of the ratio rectangle in pixel coordinates.
func (r RatioRect) Center(imgW, imgH int) (float64, float64) {
	cx := (r.X + r.Width/2) * float64(imgW)
	cy := (r.Y + r.Height/2) * float64(imgH)
	return cx, cy
}

// Expand grows the rectangle on every side by tolerance times the respective
// dimension. The origin is clamped at zero; width and height grow by twice
// the expansion so the rectangle stays centered where clamping does not bite.
func (r Rect) Expand(tolerance float64) Rect {
	expandW := int(float64(r.W) * tolerance)
	expandH := int(float64(r.H) * tolerance)

	return Rect{
		X: max(0, r.X-expandW),
		Y: max(0, r.Y-expandH),
		W: r.W + 2*expandW,
		H: r.H + 2*expandH,
	}
}

// Translate shifts the rectangle by the given pixel offsets.
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (float64, float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

// ContainsPoint reports whether the point lies inside the closed rectangle,
// bounds inclusive on all sides.
func (r Rect) ContainsPoint(x, y float64) bool {
	inX := float64(r.X) <= x && x <= float64(r.X+r.W)
	inY := float64(r.Y) <= y && y <= float64(r.Y+r.H)
	return inX && inY
}

// ContainsCenter reports whether the center of other lies inside r.
func (r Rect) ContainsCenter(other Rect) bool {
	cx, cy := other.Center()
	return r.ContainsPoint(cx, cy)
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// Diagonal returns the diagonal length of an image of the given size, used
// to normalize distances.
func Diagonal(imgW, imgH int) float64 {
	w := float64(imgW)
	h := float64(imgH)
	return math.Sqrt(w*w + h*h)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
