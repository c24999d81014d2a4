package deepface

import (
	"bytes"
	"image"
	"image/jpeg"
)

// warmupFrame encodes a uniform gray 200x200 JPEG. It contains no face on
// purpose: the point is only to trigger the backend's lazy model loading.
func warmupFrame() ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
