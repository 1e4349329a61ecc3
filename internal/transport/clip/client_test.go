package clip

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

func TestClient_EmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/text" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req textEmbeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Text != "otter" {
			t.Errorf("text = %q", req.Text)
		}
		_, _ = w.Write([]byte(`{"dim":3,"embedding":[0.1,0.2,0.3],"model":"ViT-B-32"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", time.Second)
	vec, err := c.EmbedText(context.Background(), "otter")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d", len(vec))
	}
}

func TestClient_EmbedImage_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/image" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if len(data) != len(jpegBytes) {
			t.Errorf("uploaded %d bytes", len(data))
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part content type = %q", ct)
		}
		_, _ = w.Write([]byte(`{"dim":2,"embedding":[1,0]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	vec, err := c.EmbedImage(context.Background(), jpegBytes)
	if err != nil {
		t.Fatalf("EmbedImage: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("len(vec) = %d", len(vec))
	}
}

func TestClient_EmbedErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"bad json", http.StatusOK, "{"},
		{"empty embedding", http.StatusOK, `{"dim":0,"embedding":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).EmbedText(context.Background(), "x")
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
			}
		})
	}
}

func TestClient_DetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"faces_count":2,"faces":[
			{"face_index":0,"bbox":[1,2,3,4],"det_score":0.97},
			{"face_index":1,"bbox":[5,6,7,8],"det_score":0.41}
		]}`))
	}))
	defer server.Close()

	faces, err := NewClient(server.URL, time.Second).DetectFaces(context.Background(), jpegBytes)
	if err != nil {
		t.Fatalf("DetectFaces: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("faces = %d", len(faces))
	}
	if faces[0].Score != 0.97 || faces[0].BBox != [4]float64{1, 2, 3, 4} {
		t.Errorf("faces[0] = %+v", faces[0])
	}
}

func TestClient_DetectFaces_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).DetectFaces(context.Background(), []byte("junk"))
	if !errors.Is(err, domain.ErrFaceDetectorError) {
		t.Errorf("expected ErrFaceDetectorError, got %v", err)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("healthy server: %v", err)
	}
	healthy = false
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("expected error for unhealthy server")
	}
}
