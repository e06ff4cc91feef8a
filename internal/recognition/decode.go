package recognition

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Classifier input shape: 150x150 RGB scaled to [0,1].
const (
	inputWidth  = 150
	inputHeight = 150
)

// Tensor is the normalized classifier input: row-major RGB triplets.
type Tensor struct {
	Width  int
	Height int
	Pixels []float32
}

// Decode converts raw image bytes into the classifier's fixed input
// shape. Malformed input yields ErrDecode.
func Decode(data []byte) (Tensor, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Tensor{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, inputWidth, inputHeight))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	pixels := make([]float32, 0, inputWidth*inputHeight*3)
	for y := 0; y < inputHeight; y++ {
		for x := 0; x < inputWidth; x++ {
			offset := dst.PixOffset(x, y)
			pixels = append(pixels,
				float32(dst.Pix[offset])/255.0,
				float32(dst.Pix[offset+1])/255.0,
				float32(dst.Pix[offset+2])/255.0,
			)
		}
	}
	return Tensor{Width: inputWidth, Height: inputHeight, Pixels: pixels}, nil
}
