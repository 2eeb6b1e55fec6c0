package images

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"log"
	"math"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
)

// RemoveBackground makes chroma-key pixels of a sprite transparent. It
// estimates the true key color from the image border, zeroes the alpha of
// pixels within tolerance of it (Euclidean RGB distance), and feathers the
// 10-unit band just outside the tolerance. Best-effort: any internal failure
// returns the input unchanged.
func RemoveBackground(dataURI string, tolerance float64) string {
	raw, err := decodeDataURI(dataURI)
	if err != nil {
		log.Printf("images: background removal skipped: %v", err)
		return dataURI
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Printf("images: background removal skipped: %v", err)
		return dataURI
	}

	bounds := src.Bounds()
	img := image.NewNRGBA(bounds)
	draw.Draw(img, bounds, src, bounds.Min, draw.Src)

	bg := estimateBackground(img)

	width, height := bounds.Dx(), bounds.Dy()
	feather := tolerance + 10
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			b := float64(img.Pix[i+2])

			dist := math.Sqrt((r-bg[0])*(r-bg[0]) + (g-bg[1])*(g-bg[1]) + (b-bg[2])*(b-bg[2]))
			switch {
			case dist <= tolerance:
				img.Pix[i+3] = 0
			case dist <= feather:
				// Linear ramp across the band; never raise existing alpha.
				alpha := uint8((dist - tolerance) / 10 * 255)
				if alpha < img.Pix[i+3] {
					img.Pix[i+3] = alpha
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Printf("images: background removal skipped: %v", err)
		return dataURI
	}
	return encodeDataURI(buf.Bytes())
}

// estimateBackground samples every border pixel and returns the per-channel
// median of the greenish subset (green > 150 and dominating red and blue),
// falling back to the median of all border samples when nothing looks green.
func estimateBackground(img *image.NRGBA) [3]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var samples [][3]uint8
	sample := func(x, y int) {
		i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
		samples = append(samples, [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]})
	}
	for x := 0; x < width; x++ {
		sample(x, 0)
		sample(x, height-1)
	}
	for y := 0; y < height; y++ {
		sample(0, y)
		sample(width-1, y)
	}

	var greenish [][3]uint8
	for _, s := range samples {
		if s[1] > 150 && s[1] > s[0] && s[1] > s[2] {
			greenish = append(greenish, s)
		}
	}
	if len(greenish) > 0 {
		return channelMedians(greenish)
	}
	return channelMedians(samples)
}

func channelMedians(samples [][3]uint8) [3]float64 {
	var result [3]float64
	if len(samples) == 0 {
		return result
	}
	channel := make([]int, len(samples))
	for c := 0; c < 3; c++ {
		for i, s := range samples {
			channel[i] = int(s[c])
		}
		sort.Ints(channel)
		mid := len(channel) / 2
		if len(channel)%2 == 0 {
			result[c] = float64(channel[mid-1]+channel[mid]) / 2
		} else {
			result[c] = float64(channel[mid])
		}
	}
	return result
}
