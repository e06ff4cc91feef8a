package recognition

import (
	"bytes"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func multipartImage(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "frame.png")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func predictWith(t *testing.T, classifier Classifier, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	gate := NewGate(classifier, testCatalog(), &recordingBus{}, nil, nil, GateConfig{})
	handler := NewHandler(slog.New(slog.DiscardHandler), gate)
	router := chi.NewRouter()
	handler.MountRoutes(router)

	body, contentType := multipartImage(t, payload)
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPredictEndpointSuccess(t *testing.T) {
	rec := predictWith(t, &stubClassifier{class: 1, confidence: 0.93}, pngBytes(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"success","product":"Indomie","price":3500}`, rec.Body.String())
}

func TestPredictEndpointRejections(t *testing.T) {
	cases := []struct {
		name       string
		classifier Classifier
		payload    []byte
		wantCode   int
		wantMsg    string
	}{
		{"low confidence", &stubClassifier{class: 1, confidence: 0.2}, nil, http.StatusOK, "confidence too low"},
		{"unknown class", &stubClassifier{class: 9, confidence: 0.9}, nil, http.StatusOK, "no matching product"},
		{"out of stock", &stubClassifier{class: 3, confidence: 0.9}, nil, http.StatusOK, "Stok Habis!"},
		{"bad image", &stubClassifier{class: 1, confidence: 0.9}, []byte("junk"), http.StatusBadRequest, "cannot decode image"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := tc.payload
			if payload == nil {
				payload = pngBytes(t)
			}
			rec := predictWith(t, tc.classifier, payload)
			require.Equal(t, tc.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), `"status":"fail"`)
			require.Contains(t, rec.Body.String(), tc.wantMsg)
		})
	}
}

func TestPredictEndpointRejectsOversizedImage(t *testing.T) {
	oversized := make([]byte, maxImageBytes+1)
	rec := predictWith(t, &stubClassifier{class: 1, confidence: 0.95}, oversized)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "image exceeds size limit")
}

func TestPredictEndpointMissingFile(t *testing.T) {
	gate := NewGate(&stubClassifier{}, testCatalog(), &recordingBus{}, nil, nil, GateConfig{})
	handler := NewHandler(slog.New(slog.DiscardHandler), gate)
	router := chi.NewRouter()
	handler.MountRoutes(router)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "no image here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
