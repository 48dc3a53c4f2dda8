package fingerprint

import (
	"image"
	"math"
	"sort"
)

// Perceptual hash parameters: the page is downsampled to a dctSize grid, run
// through a 2D DCT-II, and the top-left hashSize block (the low-frequency
// coefficients) is thresholded against its median into one bit per cell.
const (
	dctSize  = 32
	hashSize = 8
)

// PerceptualHash computes the 64-bit DCT hash of an image. Degenerate images
// (zero area) yield the sentinel zero hash.
func PerceptualHash(img image.Image) uint64 {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return 0
	}

	gray := downsampleGray(img, dctSize)
	coeffs := dct2d(gray)

	// Collect the low-frequency block and threshold against its median.
	block := make([]float64, 0, hashSize*hashSize)
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			block = append(block, coeffs[y][x])
		}
	}
	med := median(block)

	var hash uint64
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			if coeffs[y][x] > med {
				hash |= 1 << uint(y*hashSize+x)
			}
		}
	}
	return hash
}

// downsampleGray box-averages the image into a size×size grayscale grid.
func downsampleGray(img image.Image, size int) [][]float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	grid := make([][]float64, size)
	for gy := 0; gy < size; gy++ {
		grid[gy] = make([]float64, size)
		for gx := 0; gx < size; gx++ {
			x0 := bounds.Min.X + gx*w/size
			x1 := bounds.Min.X + (gx+1)*w/size
			y0 := bounds.Min.Y + gy*h/size
			y1 := bounds.Min.Y + (gy+1)*h/size
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if y1 <= y0 {
				y1 = y0 + 1
			}

			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					// ITU-R BT.601 luma on 16-bit channels.
					sum += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
				}
			}
			grid[gy][gx] = sum / float64((x1-x0)*(y1-y0)) / 256.0
		}
	}
	return grid
}

// dct2d applies a DCT-II along rows then columns.
func dct2d(grid [][]float64) [][]float64 {
	n := len(grid)
	tmp := make([][]float64, n)
	for i, row := range grid {
		tmp[i] = dct1d(row)
	}

	col := make([]float64, n)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = tmp[y][x]
		}
		t := dct1d(col)
		for y := 0; y < n; y++ {
			out[y][x] = t[y]
		}
	}
	return out
}

func dct1d(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		out[k] = sum
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
