package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxPhotoBytes = 8 << 20

var errRecognitionDisabled = errors.New("food recognition service not configured")

// recognition is the prediction returned by the image model service.
// Nutrient values are per serving.
type recognition struct {
	Label    string  `json:"label"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
}

// foodRecognizer calls the external image classification service.
type foodRecognizer struct {
	baseURL string
	client  *http.Client
}

// newFoodRecognizer returns a recognizer for the service at baseURL. An empty
// baseURL disables recognition.
func newFoodRecognizer(baseURL string, timeout time.Duration) *foodRecognizer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &foodRecognizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// predict uploads the image as the multipart field "file" and decodes the
// prediction.
func (r *foodRecognizer) predict(ctx context.Context, filename string, data []byte) (recognition, error) {
	if r == nil || r.baseURL == "" {
		return recognition{}, errRecognitionDisabled
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", path.Base(filename))
	if err != nil {
		return recognition{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return recognition{}, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return recognition{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/predict/", &buf)
	if err != nil {
		return recognition{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return recognition{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return recognition{}, fmt.Errorf("recognizer returned status %d: %s", resp.StatusCode, string(body))
	}

	var out recognition
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return recognition{}, fmt.Errorf("decode response: %w", err)
	}
	if out.Label == "" {
		return recognition{}, errors.New("recognizer returned no label")
	}
	return out, nil
}

// recognizeFood identifies the food in an uploaded photo and returns a draft
// intake entry. The photo is archived when a bucket is configured.
// POST /api/food/recognize (multipart, field "image").
func (h *Handler) recognizeFood(c *gin.Context) {
	userID := c.GetInt("user_id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		apiError(c, http.StatusBadRequest, "image is required")
		return
	}
	if fh.Size > maxPhotoBytes {
		apiError(c, http.StatusRequestEntityTooLarge, "image must be at most 8 MB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		apiError(c, http.StatusBadRequest, "failed to read image")
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	f.Close()
	if err != nil || len(data) == 0 {
		apiError(c, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(data) > maxPhotoBytes {
		apiError(c, http.StatusRequestEntityTooLarge, "image must be at most 8 MB")
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		apiError(c, http.StatusUnsupportedMediaType, "file must be an image")
		return
	}

	pred, err := h.recognizer.predict(c.Request.Context(), fh.Filename, data)
	if errors.Is(err, errRecognitionDisabled) {
		apiError(c, http.StatusServiceUnavailable, "food recognition is not configured")
		return
	}
	if err != nil {
		h.log.Errorw("recognize food", "user_id", userID, "error", err)
		apiError(c, http.StatusBadGateway, "food recognition failed")
		return
	}

	resp := gin.H{
		"name":      pred.Label,
		"meal":      "other",
		"calories":  pred.Calories,
		"protein_g": pred.ProteinG,
		"carbs_g":   pred.CarbsG,
		"fat_g":     pred.FatG,
	}
	if h.photos != nil {
		url, err := h.photos.Put(c.Request.Context(), photoKey(userID, contentType), contentType, data)
		if err != nil {
			// The prediction is still useful without the archived photo.
			h.log.Warnw("archive food photo", "user_id", userID, "error", err)
		} else {
			resp["photo_url"] = url
		}
	}
	c.JSON(http.StatusOK, resp)
}
