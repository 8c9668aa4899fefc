package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// UploadImage stores one image from the multipart field "image".
// POST /api/upload/image
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "No image uploaded"})
	}
	if fh.Size > h.Config.Media.MaxBytes {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Image is too large"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Could not read upload"})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.Config.Media.MaxBytes+1))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Could not read upload"})
	}

	media, err := h.Media.Save(c.UserContext(), fh.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"url":       media.URL,
		"public_id": media.PublicID,
		"format":    media.Format,
		"bytes":     media.Bytes,
		"width":     media.Width,
		"height":    media.Height,
	})
}
