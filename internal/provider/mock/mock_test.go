package mock

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestProvider_Represent(t *testing.T) {
	p := New()
	ctx := context.Background()

	t.Run("deterministic embedding per image", func(t *testing.T) {
		img := pngBytes(t, 300, 300)

		first, err := p.Represent(ctx, img)
		require.NoError(t, err)
		second, err := p.Represent(ctx, img)
		require.NoError(t, err)

		require.Len(t, first, 1)
		assert.Equal(t, first[0].Embedding, second[0].Embedding)
		assert.Len(t, first[0].Embedding, 512)
	})

	t.Run("embedding is unit length", func(t *testing.T) {
		detections, err := p.Represent(ctx, []byte("arbitrary bytes"))
		require.NoError(t, err)

		var norm float64
		for _, v := range detections[0].Embedding {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	})

	t.Run("different images differ", func(t *testing.T) {
		a, err := p.Represent(ctx, []byte("image-a"))
		require.NoError(t, err)
		b, err := p.Represent(ctx, []byte("image-b"))
		require.NoError(t, err)

		assert.NotEqual(t, a[0].Embedding, b[0].Embedding)
	})

	t.Run("bounding box tracks decoded dimensions", func(t *testing.T) {
		detections, err := p.Represent(ctx, pngBytes(t, 400, 300))
		require.NoError(t, err)

		box := detections[0].BoundingBox
		assert.Equal(t, 320, box.Width)
		assert.Equal(t, 240, box.Height)
		// 80% of each edge: ratio 0.64, comfortably above the gate.
		assert.Equal(t, 320*240, box.Area())
	})

	t.Run("empty image is no face", func(t *testing.T) {
		_, err := p.Represent(ctx, nil)
		assert.ErrorIs(t, err, provider.ErrNoFaceDetected)
	})
}

func TestProvider_Warmup(t *testing.T) {
	assert.NoError(t, New().Warmup(context.Background()))
}
