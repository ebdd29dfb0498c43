package storage

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var ErrUnsupportedImageType = errors.New("unsupported image type")

// thumbnailWidth matches the card size rendered by the storefront.
const thumbnailWidth = 400

// Extensions imaging can both decode and re-encode.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ImageStore writes product images to local disk and hands back the
// public URL the catalog stores on the product record.
type ImageStore struct {
	uploadDir     string
	publicBaseURL string
}

func NewImageStore(uploadDir, publicBaseURL string) *ImageStore {
	return &ImageStore{
		uploadDir:     uploadDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Dir returns the directory images are written to, for static serving.
func (s *ImageStore) Dir() string {
	return s.uploadDir
}

// Save decodes the uploaded file, writes the original plus a resized
// thumbnail, and returns the public URL of the original.
func (s *ImageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedImageType
	}

	img, err := imaging.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	name := uuid.New().String() + ext
	originalPath := filepath.Join(s.uploadDir, name)
	thumbDir := filepath.Join(s.uploadDir, "thumb")
	thumbnailPath := filepath.Join(thumbDir, name)

	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := imaging.Save(img, originalPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbnailPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return s.publicBaseURL + "/" + name, nil
}

// Remove deletes a previously saved image and its thumbnail. Unknown
// URLs are ignored so catalog deletes never fail over a missing file.
func (s *ImageStore) Remove(publicURL string) {
	if publicURL == "" || !strings.HasPrefix(publicURL, s.publicBaseURL+"/") {
		return
	}
	name := strings.TrimPrefix(publicURL, s.publicBaseURL+"/")
	if name == "" || strings.Contains(name, "/") {
		return
	}
	os.Remove(filepath.Join(s.uploadDir, name))
	os.Remove(filepath.Join(s.uploadDir, "thumb", name))
}
