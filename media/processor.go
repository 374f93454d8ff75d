package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultAvatarMaxSize = 512
	AvatarJpegQuality    = 85
	AvatarMimeType       = "image/jpeg"
)

// ErrUnsupportedImage is returned for uploads that aren't a decodable raster image.
var ErrUnsupportedImage = errors.New("unsupported image")

// ErrEmptyUpload is returned when there are no bytes to read.
var ErrEmptyUpload = errors.New("empty upload")

// Processor turns uploaded photos into avatar data URIs: the photo is
// auto-oriented from its EXIF data, fitted into a square of MaxSize pixels
// (never upscaled), flattened onto white and re-encoded as JPEG.
type Processor struct {
	MaxSize int
	Quality int
}

func NewProcessor(maxSize int) *Processor {
	if maxSize <= 0 {
		maxSize = DefaultAvatarMaxSize
	}
	return &Processor{MaxSize: maxSize, Quality: AvatarJpegQuality}
}

// DetectImage sniffs data and returns its MIME type if it is a supported image.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	mtype := mimetype.Detect(data)
	if !IsSupportedMime(mtype.String()) {
		return mtype.String(), fmt.Errorf("%w: detected %s", ErrUnsupportedImage, mtype.String())
	}
	return mtype.String(), nil
}

// EncodeAvatar reads the full upload from r and returns a data URI.
func (p *Processor) EncodeAvatar(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read avatar upload: %w", err)
	}
	return p.EncodeAvatarBytes(data)
}

// EncodeAvatarBytes is EncodeAvatar for an upload already in memory.
func (p *Processor) EncodeAvatarBytes(data []byte) (string, error) {
	if _, err := DetectImage(data); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode: %v", ErrUnsupportedImage, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedImage, bounds.Dx(), bounds.Dy())
	}

	fitted := imaging.Fit(img, p.MaxSize, p.MaxSize, imaging.Lanczos)
	flat := flatten(fitted)

	var buf bytes.Buffer
	buf.WriteString("data:" + AvatarMimeType + ";base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := imaging.Encode(enc, flat, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return "", fmt.Errorf("avatar encoding failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("avatar encoding failed: %w", err)
	}
	return buf.String(), nil
}

// flatten composites img onto an opaque white canvas so transparent PNG/GIF
// areas don't turn black in the JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// DecodeDataURI returns the MIME type and raw bytes of a base64 data URI.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URI without payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return mime, data, nil
}
