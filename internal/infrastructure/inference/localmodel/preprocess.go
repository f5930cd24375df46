package localmodel

import (
	"image"
	"math"
)

const inputSize = 224

var (
	imagenetMean = [3]float64{0.485, 0.456, 0.406}
	imagenetStd  = [3]float64{0.229, 0.224, 0.225}
)

// Preprocess maps a decoded radiograph onto the model's input tensor:
// bilinear resize onto a black 224x224 canvas preserving aspect ratio,
// ImageNet normalization, channel-major (CHW) layout.
func Preprocess(src image.Image) []float32 {
	const plane = inputSize * inputSize
	out := make([]float32, 3*plane)
	for c := range 3 {
		black := float32((0 - imagenetMean[c]) / imagenetStd[c])
		for i := c * plane; i < (c+1)*plane; i++ {
			out[i] = black
		}
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return out
	}

	scale := math.Min(float64(inputSize)/float64(srcW), float64(inputSize)/float64(srcH))
	dstW := max(int(math.Round(float64(srcW)*scale)), 1)
	dstH := max(int(math.Round(float64(srcH)*scale)), 1)
	offX := (inputSize - dstW) / 2
	offY := (inputSize - dstH) / 2

	for y := range dstH {
		srcY := (float64(y)+0.5)*float64(srcH)/float64(dstH) - 0.5
		for x := range dstW {
			srcX := (float64(x)+0.5)*float64(srcW)/float64(dstW) - 0.5
			r, g, b := sampleBilinear(src, srcX, srcY)

			idx := (offY+y)*inputSize + offX + x
			out[idx] = float32((r - imagenetMean[0]) / imagenetStd[0])
			out[plane+idx] = float32((g - imagenetMean[1]) / imagenetStd[1])
			out[2*plane+idx] = float32((b - imagenetMean[2]) / imagenetStd[2])
		}
	}
	return out
}

func sampleBilinear(src image.Image, x, y float64) (r, g, b float64) {
	bounds := src.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	r00, g00, b00 := pixelAt(src, bounds, x0, y0)
	r10, g10, b10 := pixelAt(src, bounds, x0+1, y0)
	r01, g01, b01 := pixelAt(src, bounds, x0, y0+1)
	r11, g11, b11 := pixelAt(src, bounds, x0+1, y0+1)

	r = lerp(lerp(r00, r10, fx), lerp(r01, r11, fx), fy)
	g = lerp(lerp(g00, g10, fx), lerp(g01, g11, fx), fy)
	b = lerp(lerp(b00, b10, fx), lerp(b01, b11, fx), fy)
	return r, g, b
}

func pixelAt(src image.Image, bounds image.Rectangle, x, y int) (r, g, b float64) {
	x = min(max(x, 0), bounds.Dx()-1)
	y = min(max(y, 0), bounds.Dy()-1)
	cr, cg, cb, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
	return float64(cr) / 65535, float64(cg) / 65535, float64(cb) / 65535
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
