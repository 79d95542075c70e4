package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
)

var (
	ErrEmpty    = apperr.New(apperr.ValidationFailed, "upload", "no file was provided")
	ErrNotImage = apperr.New(apperr.ValidationFailed, "upload", "please upload an image file")
	ErrTooLarge = apperr.New(apperr.ValidationFailed, "upload", "image is too large")
)

// Validate sniffs data and rejects anything that is not an image before it is sent anywhere.
// When the format is decodable here, maxPixels bounds the dimensions declared in its header.
func Validate(data []byte, maxBytes int64, maxPixels int) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && exceeds(cfg, maxPixels) {
		return "", ErrTooLarge
	}
	return mt.String(), nil
}

func exceeds(cfg image.Config, maxPixels int) bool {
	return maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels)
}

// Thumbnail scales data down to maxWidth (keeping aspect ratio) and re-encodes it as JPEG.
// Images already narrower than maxWidth are re-encoded at their own size.
// The header is read first so oversized images are refused without being decoded.
func Thumbnail(data []byte, maxWidth, maxPixels int) (*domain.Preview, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if exceeds(cfg, maxPixels) {
		return nil, ErrTooLarge
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}
	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		if h < 1 {
			h = 1
		}
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return &domain.Preview{ContentType: "image/jpeg", Data: out.Bytes()}, nil
}
