package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"lg/fittrack-api/internal/logger"
)

// pngHeader is enough of a PNG for http.DetectContentType.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type fakePhotoStore struct {
	key         string
	contentType string
	err         error
}

func (f *fakePhotoStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.key = key
	f.contentType = contentType
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key, nil
}

// newMockRecognizer serves POST /predict/ and records the uploaded file.
func newMockRecognizer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var uploaded []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict/" {
			http.NotFound(w, r)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		uploaded, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &uploaded
}

// imageRequest builds a multipart request with data as the "image" field.
func imageRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "lunch.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/food/recognize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func setupRecognizeTest(recognizerURL string, photos photoStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		log:        logger.NewNop(),
		recognizer: newFoodRecognizer(recognizerURL, 2*time.Second),
		photos:     photos,
	}
	router := gin.New()
	router.POST("/api/food/recognize", func(c *gin.Context) {
		c.Set("user_id", 3)
		c.Next()
	}, h.recognizeFood)
	return router
}

func TestRecognize_Success(t *testing.T) {
	server, uploaded := newMockRecognizer(t, http.StatusOK,
		`{"label":"pizza","calories":285,"protein":12,"carbs":36,"fat":10}`)
	photos := &fakePhotoStore{}
	router := setupRecognizeTest(server.URL, photos)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, imageRequest(t, pngHeader))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["name"] != "pizza" || resp["calories"] != 285.0 || resp["protein_g"] != 12.0 {
		t.Errorf("unexpected response: %v", resp)
	}
	if !bytes.Equal(*uploaded, pngHeader) {
		t.Errorf("recognizer received %d bytes, want %d", len(*uploaded), len(pngHeader))
	}
	if photos.contentType != "image/png" {
		t.Errorf("expected archived content type image/png, got %q", photos.contentType)
	}
	if resp["photo_url"] != "https://cdn.example.com/"+photos.key {
		t.Errorf("unexpected photo_url %v", resp["photo_url"])
	}
}

func TestRecognize_ArchiveFailureStillReturnsPrediction(t *testing.T) {
	server, _ := newMockRecognizer(t, http.StatusOK, `{"label":"apple","calories":95}`)
	router := setupRecognizeTest(server.URL, &fakePhotoStore{err: errors.New("bucket down")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, imageRequest(t, pngHeader))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if _, ok := resp["photo_url"]; ok {
		t.Errorf("did not expect photo_url when archiving fails")
	}
}

func TestRecognize_NotAnImage(t *testing.T) {
	server, _ := newMockRecognizer(t, http.StatusOK, `{"label":"pizza","calories":285}`)
	router := setupRecognizeTest(server.URL, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, imageRequest(t, []byte("just some text")))

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecognize_MissingImage(t *testing.T) {
	router := setupRecognizeTest("http://unused", nil)

	req := httptest.NewRequest("POST", "/api/food/recognize", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecognize_UpstreamError(t *testing.T) {
	server, _ := newMockRecognizer(t, http.StatusInternalServerError, `{"detail":"model crashed"}`)
	router := setupRecognizeTest(server.URL, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, imageRequest(t, pngHeader))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecognize_NotConfigured(t *testing.T) {
	router := setupRecognizeTest("", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, imageRequest(t, pngHeader))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPhotoKey(t *testing.T) {
	a := photoKey(3, "image/jpeg")
	b := photoKey(3, "image/jpeg")
	if a == b {
		t.Errorf("expected unique keys, got %q twice", a)
	}
	if !strings.HasPrefix(a, "food-photos/3/") || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("unexpected key %q", a)
	}
}
