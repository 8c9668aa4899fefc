package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"inteqt-web/backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMediaConfig(t *testing.T) config.Media {
	t.Helper()
	return config.Media{
		UploadDir:    filepath.Join(t.TempDir(), "uploads"),
		PublicPrefix: "/uploads",
		MaxBytes:     1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	cfg := testMediaConfig(t)
	data := pngBytes(t, 4, 3)

	format, imgCfg, err := ValidateImage(cfg, "image/png; charset=binary", data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, imgCfg.Width)
	assert.Equal(t, 3, imgCfg.Height)

	tests := []struct {
		name        string
		contentType string
		data        []byte
	}{
		{"empty", "image/png", nil},
		{"not allowed", "image/gif", data},
		{"unknown type", "application/pdf", data},
		{"content mismatch", "image/jpeg", data},
		{"not an image", "image/png", []byte("definitely not a png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateImage(cfg, tt.contentType, tt.data)
			requireKind(t, err, KindBadRequest)
		})
	}

	cfg.MaxBytes = int64(len(data) - 1)
	_, _, err = ValidateImage(cfg, "image/png", data)
	requireKind(t, err, KindBadRequest)
}

func TestLocalMediaStore_SaveAndDelete(t *testing.T) {
	cfg := testMediaConfig(t)
	store, err := NewLocalMediaStore(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	data := pngBytes(t, 8, 8)
	m, err := store.Save(ctx, "image/png", data)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+m.PublicID, m.URL)
	assert.Equal(t, "png", m.Format)
	assert.Equal(t, len(data), m.Bytes)
	assert.Equal(t, 8, m.Width)

	onDisk, err := os.ReadFile(filepath.Join(cfg.UploadDir, m.PublicID))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	require.NoError(t, store.Delete(ctx, m.PublicID))
	_, err = os.Stat(filepath.Join(cfg.UploadDir, m.PublicID))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine; path tricks are not.
	require.NoError(t, store.Delete(ctx, m.PublicID))
	assert.Error(t, store.Delete(ctx, "../inteqt.db"))
}

func TestLocalMediaStore_SaveRejectsInvalid(t *testing.T) {
	cfg := testMediaConfig(t)
	store, err := NewLocalMediaStore(cfg)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "image/jpeg", pngBytes(t, 2, 2))
	requireKind(t, err, KindBadRequest)

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
