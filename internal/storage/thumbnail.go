package storage

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Thumbnail fits data into a box-by-box square without upscaling and
// re-encodes it as PNG.
func Thumbnail(data []byte, box int) ([]byte, int, int, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode: %w", err)
	}
	thumb := imaging.Fit(src, box, box, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, 0, 0, fmt.Errorf("encode: %w", err)
	}
	b := thumb.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

// Dimensions reports the pixel size of an encoded image.
func Dimensions(data []byte) (int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
