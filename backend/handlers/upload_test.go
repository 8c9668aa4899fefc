package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="flag.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.setup()
	data := smallPNG(t)

	body, ct := multipartImage(t, "image/png", data)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
	req.Header.Set("Content-Type", ct)
	status, raw := s.do(req, userToken)
	require.Equal(t, http.StatusOK, status, string(raw))

	var res struct {
		Success  bool   `json:"success"`
		URL      string `json:"url"`
		PublicID string `json:"public_id"`
		Format   string `json:"format"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Success)
	assert.Equal(t, "/uploads/"+res.PublicID, res.URL)
	assert.Equal(t, "png", res.Format)
	assert.Equal(t, 3, res.Width)
	assert.Equal(t, 2, res.Height)

	status, served := s.do(httptest.NewRequest(http.MethodGet, res.URL, nil), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, data, served)
}

func TestUploadImage_Rejections(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.setup()

	body, ct := multipartImage(t, "image/png", smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
	req.Header.Set("Content-Type", ct)
	status, _ := s.do(req, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	body, ct = multipartImage(t, "image/jpeg", smallPNG(t))
	req = httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
	req.Header.Set("Content-Type", ct)
	status, _ = s.do(req, userToken)
	assert.Equal(t, http.StatusBadRequest, status)

	body, ct = multipartImage(t, "application/pdf", []byte("%PDF-1.4"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
	req.Header.Set("Content-Type", ct)
	status, _ = s.do(req, userToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp := s.call(http.MethodPost, "/api/upload/image", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No image uploaded", resp["message"])
}
