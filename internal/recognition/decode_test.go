package recognition

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeResizesToModelInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	tensor, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 150, tensor.Width)
	require.Equal(t, 150, tensor.Height)
	require.Len(t, tensor.Pixels, 150*150*3)

	for _, v := range tensor.Pixels {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}

	// Uniform source keeps the channel ordering observable after resize.
	require.InDelta(t, 200.0/255.0, float64(tensor.Pixels[0]), 0.05)
	require.InDelta(t, 100.0/255.0, float64(tensor.Pixels[1]), 0.05)
	require.InDelta(t, 50.0/255.0, float64(tensor.Pixels[2]), 0.05)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x01, 0x02})
	require.ErrorIs(t, err, ErrDecode)
}

func TestReshapeLayout(t *testing.T) {
	tensor := Tensor{Width: 2, Height: 2, Pixels: []float32{
		0.1, 0.2, 0.3, 0.4, 0.5, 0.6,
		0.7, 0.8, 0.9, 1.0, 0.0, 0.5,
	}}
	nested := reshape(tensor)
	require.Len(t, nested, 2)
	require.Len(t, nested[0], 2)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, nested[0][0])
	require.Equal(t, []float32{1.0, 0.0, 0.5}, nested[1][1])
}
