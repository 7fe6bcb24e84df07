package preprocess

import (
	"image"
	"image/color"
	"image/draw"
	"runtime"
	"sync"

	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// Apply runs the template's advisory preprocessing hints over the image and
// returns the processed raster. Hints are best effort: extraction
// correctness never depends on this having run, so a nil hint set returns
// the input unchanged.
func Apply(img image.Image, hints *template.Preprocess) image.Image {
	if hints == nil || (hints.Denoise == "" && hints.Binarize == "") {
		return img
	}

	gray := ToGray(img)

	switch hints.Denoise {
	case "gaussian":
		gray = GaussianBlur(gray)
	case "bilateral":
		gray = BilateralFilter(gray)
	case "nlm":
		// Non-local means is outside the scope of this stage; a Gaussian
		// pass is the closest cheap stand-in.
		logger.WithField("denoise", hints.Denoise).Debug("Approximating nlm denoise with gaussian blur")
		gray = GaussianBlur(gray)
	}

	switch hints.Binarize {
	case "otsu":
		gray = Binarize(gray, OtsuThreshold(gray))
	case "threshold":
		gray = Binarize(gray, 128)
	case "adaptive":
		gray = AdaptiveBinarize(gray, 15, 10)
	}

	return gray
}

// ToGray converts any raster to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// GaussianBlur applies a separable 5-tap Gaussian kernel.
func GaussianBlur(gray *image.Gray) *image.Gray {
	kernel := [5]int{1, 4, 6, 4, 1}
	const kernelSum = 16

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	horizontal := image.NewGray(bounds)
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc int
				for k := -2; k <= 2; k++ {
					acc += int(gray.GrayAt(clamp(x+k, 0, w-1), y).Y) * kernel[k+2]
				}
				horizontal.SetGray(x, y, toGrayValue(acc/kernelSum))
			}
		}
	})

	out := image.NewGray(bounds)
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc int
				for k := -2; k <= 2; k++ {
					acc += int(horizontal.GrayAt(x, clamp(y+k, 0, h-1)).Y) * kernel[k+2]
				}
				out.SetGray(x, y, toGrayValue(acc/kernelSum))
			}
		}
	})

	return out
}

// BilateralFilter applies a small edge-preserving smoothing pass: spatial
// box weighting over a 3x3 window gated by intensity similarity.
func BilateralFilter(gray *image.Gray) *image.Gray {
	const rangeCutoff = 30

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				center := int(gray.GrayAt(x, y).Y)
				var acc, weight int
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						v := int(gray.GrayAt(clamp(x+dx, 0, w-1), clamp(y+dy, 0, h-1)).Y)
						diff := v - center
						if diff < 0 {
							diff = -diff
						}
						if diff <= rangeCutoff {
							acc += v
							weight++
						}
					}
				}
				out.SetGray(x, y, toGrayValue(acc/weight))
			}
		}
	})

	return out
}

// OtsuThreshold finds the global binarization threshold maximizing
// between-class variance of the intensity histogram.
func OtsuThreshold(gray *image.Gray) uint8 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var histogram [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			histogram[gray.GrayAt(x, y).Y]++
		}
	}

	total := w * h
	var sum float64
	for i, count := range histogram {
		sum += float64(i) * float64(count)
	}

	var sumBackground float64
	var weightBackground int
	var maxVariance float64
	var threshold uint8

	for i := 0; i < 256; i++ {
		weightBackground += histogram[i]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(i) * float64(histogram[i])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sum - sumBackground) / float64(weightForeground)

		diff := meanBackground - meanForeground
		variance := float64(weightBackground) * float64(weightForeground) * diff * diff
		if variance > maxVariance {
			maxVariance = variance
			threshold = uint8(i)
		}
	}

	return threshold
}

// Binarize maps pixels above the threshold to white and the rest to black.
func Binarize(gray *image.Gray, threshold uint8) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				if gray.GrayAt(x, y).Y > threshold {
					out.SetGray(x, y, toGrayValue(255))
				} else {
					out.SetGray(x, y, toGrayValue(0))
				}
			}
		}
	})

	return out
}

// AdaptiveBinarize thresholds each pixel against the mean of its window
// minus a constant offset, which tolerates uneven illumination.
func AdaptiveBinarize(gray *image.Gray, window, offset int) *image.Gray {
	if window%2 == 0 {
		window++
	}
	radius := window / 2

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc, count int
				for dy := -radius; dy <= radius; dy++ {
					yy := y + dy
					if yy < 0 || yy >= h {
						continue
					}
					for dx := -radius; dx <= radius; dx++ {
						xx := x + dx
						if xx < 0 || xx >= w {
							continue
						}
						acc += int(gray.GrayAt(xx, yy).Y)
						count++
					}
				}
				mean := acc / count
				if int(gray.GrayAt(x, y).Y) > mean-offset {
					out.SetGray(x, y, toGrayValue(255))
				} else {
					out.SetGray(x, y, toGrayValue(0))
				}
			}
		}
	})

	return out
}

// parallelRows splits the row range across workers sized to the machine.
func parallelRows(height int, work func(y0, y1 int)) {
	workers := runtime.NumCPU()
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		work(0, height)
		return
	}

	chunk := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for y := 0; y < height; y += chunk {
		end := y + chunk
		if end > height {
			end = height
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			work(y0, y1)
		}(y, end)
	}
	wg.Wait()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toGrayValue(v int) color.Gray {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return color.Gray{Y: uint8(v)}
}
