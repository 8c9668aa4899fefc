package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"inteqt-web/backend/config"
	"inteqt-web/backend/system"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register decoder
)

// Media describes a stored image.
type Media struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// MediaStore persists uploaded images and hands back durable URLs.
type MediaStore interface {
	Save(ctx context.Context, contentType string, data []byte) (*Media, error)
	Delete(ctx context.Context, publicID string) error
	// URLFor is the URL Save returns for publicID.
	URLFor(publicID string) string
}

// formatForType maps an allowed MIME type to the decoder name image reports.
var formatForType = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var publicIDPattern = regexp.MustCompile(`^[a-f0-9-]{36}\.(jpeg|png|gif|webp)$`)

// ValidateImage checks size, MIME allow-list and that data decodes as the
// claimed type. It returns the detected format and dimensions.
func ValidateImage(cfg config.Media, contentType string, data []byte) (string, image.Config, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if len(data) == 0 {
		return "", image.Config{}, BadRequest("Image is empty")
	}
	if int64(len(data)) > cfg.MaxBytes {
		return "", image.Config{}, BadRequest(fmt.Sprintf("Image exceeds %d bytes", cfg.MaxBytes))
	}

	allowed := false
	for _, t := range cfg.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			allowed = true
			break
		}
	}
	want, known := formatForType[contentType]
	if !allowed || !known {
		return "", image.Config{}, BadRequest("Unsupported image type: " + contentType)
	}

	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != want {
		return "", image.Config{}, BadRequest("File content does not match " + contentType)
	}
	return format, imgCfg, nil
}

// LocalMediaStore keeps images on local disk, served under a URL prefix.
type LocalMediaStore struct {
	cfg config.Media
}

// NewLocalMediaStore creates the upload directory if needed.
func NewLocalMediaStore(cfg config.Media) (*LocalMediaStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalMediaStore{cfg: cfg}, nil
}

// Save validates and writes the image under a random name.
func (m *LocalMediaStore) Save(ctx context.Context, contentType string, data []byte) (*Media, error) {
	format, imgCfg, err := ValidateImage(m.cfg, contentType, data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Internal(err)
	}

	publicID := uuid.NewString() + "." + format
	if err := os.WriteFile(filepath.Join(m.cfg.UploadDir, publicID), data, 0o644); err != nil {
		return nil, Internal(fmt.Errorf("write image: %w", err))
	}
	system.Info("Image stored: %s (%d bytes)", publicID, len(data))

	return &Media{
		URL:      m.URLFor(publicID),
		PublicID: publicID,
		Format:   format,
		Bytes:    len(data),
		Width:    imgCfg.Width,
		Height:   imgCfg.Height,
	}, nil
}

// URLFor implements MediaStore.
func (m *LocalMediaStore) URLFor(publicID string) string {
	return path.Join(m.cfg.PublicPrefix, publicID)
}

// Delete removes a stored image. Unknown ids are not an error.
func (m *LocalMediaStore) Delete(_ context.Context, publicID string) error {
	if !publicIDPattern.MatchString(publicID) {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	err := os.Remove(filepath.Join(m.cfg.UploadDir, publicID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
