package photosvc

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

var ErrInvalidImage = errors.New("invalid or unsupported image")

// Service prepares student photos: stored photos are always JPEG, at most MaxWidth x MaxHeight.
type Service struct {
	maxW, maxH int
	quality    int
}

var _ grade.PhotoNormalizer = (*Service)(nil)

func NewService(conf *core.Config) *Service {
	return &Service{
		maxW:    conf.Photo.MaxWidth,
		maxH:    conf.Photo.MaxHeight,
		quality: conf.Photo.JPEGQuality,
	}
}

// decode sniffs the format of data and decodes it (JPEG, PNG, GIF, BMP, TIFF or WebP).
func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidImage, "empty file")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	var img image.Image
	var err error
	if strings.Contains(ct, "webp") {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidImage, "decoding %s: %v", ct, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.Wrap(ErrInvalidImage, "empty image")
	}
	return img, nil
}

func (svc *Service) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(svc.quality)); err != nil {
		return nil, errors.Wrap(err, "encoding jpeg")
	}
	return buf.Bytes(), nil
}

// Normalize decodes an uploaded photo, shrinks it to fit the configured box and re-encodes it as JPEG.
func (svc *Service) Normalize(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	if svc.maxW > 0 && svc.maxH > 0 {
		img = imaging.Fit(img, svc.maxW, svc.maxH, imaging.Lanczos)
	}
	return svc.encode(img)
}

// Preview decodes a stored photo into a bitmap fitting w x h. Corrupt data fails with ErrInvalidImage.
func (svc *Service) Preview(data []byte, w, h int) (image.Image, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	if w > 0 && h > 0 {
		img = imaging.Fit(img, w, h, imaging.Lanczos)
	}
	return img, nil
}

// PreviewJPEG is Preview encoded as JPEG, ready to be served.
func (svc *Service) PreviewJPEG(data []byte, w, h int) ([]byte, error) {
	img, err := svc.Preview(data, w, h)
	if err != nil {
		return nil, err
	}
	return svc.encode(img)
}
