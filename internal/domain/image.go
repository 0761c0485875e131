package domain

import (
	"errors"
	"regexp"
	"strings"
)

const (
	dataImagePrefix  = "data:image/"
	defaultImageMIME = "image/png"
)

var (
	ErrNotDataImage = errors.New("image must be a data:image/ URL")
	mimePattern     = regexp.MustCompile(`^data:(image/[a-zA-Z0-9+-]+);base64,`)
)

// EncodedImage is a base64 data URL of a captured screen region.
type EncodedImage struct {
	dataURL string
}

func NewEncodedImage(dataURL string) (EncodedImage, error) {
	if !strings.HasPrefix(dataURL, dataImagePrefix) {
		return EncodedImage{}, ErrNotDataImage
	}
	return EncodedImage{dataURL: dataURL}, nil
}

func (i EncodedImage) DataURL() string {
	return i.dataURL
}

// MIMEType falls back to image/png when the header cannot be parsed.
func (i EncodedImage) MIMEType() string {
	if m := mimePattern.FindStringSubmatch(i.dataURL); m != nil {
		return m[1]
	}
	return defaultImageMIME
}

// Base64Data is everything after the first comma.
func (i EncodedImage) Base64Data() string {
	_, data, _ := strings.Cut(i.dataURL, ",")
	return data
}
