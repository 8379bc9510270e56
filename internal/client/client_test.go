package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

func TestSubmitRender(t *testing.T) {
	var gotAuth string
	var gotReq models.RenderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/renders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.GenerationJob{
			ID: "job-1", SessionID: gotReq.SessionID, Status: models.JobPending,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "key-123", time.Second)
	job, err := c.SubmitRender(context.Background(), &models.RenderRequest{
		SessionID: "s1",
		Mode:      models.RenderModeFull,
	})
	if err != nil {
		t.Fatalf("SubmitRender() error = %v", err)
	}
	if job.ID != "job-1" || job.Status != models.JobPending {
		t.Fatalf("unexpected job: %+v", job)
	}
	if gotAuth != "Bearer key-123" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotReq.Mode != models.RenderModeFull {
		t.Fatalf("expected full render mode, got %s", gotReq.Mode)
	}
}

func TestJobStatusAndResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/renders/job-1":
			json.NewEncoder(w).Encode(models.GenerationJob{ID: "job-1", Status: models.JobSucceeded})
		case "/v1/renders/job-1/result":
			json.NewEncoder(w).Encode(models.RenderResult{JobID: "job-1", Image: []byte("png-bytes")})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	job, err := c.JobStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("JobStatus() error = %v", err)
	}
	if !job.Status.Terminal() {
		t.Fatalf("expected terminal status, got %s", job.Status)
	}

	result, err := c.JobResult(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("JobResult() error = %v", err)
	}
	if string(result.Image) != "png-bytes" {
		t.Fatalf("unexpected image payload: %q", result.Image)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room photo missing", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	_, err := c.SubmitRender(context.Background(), &models.RenderRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", apiErr.Status)
	}
	if apiErr.Temporary() {
		t.Fatalf("4xx errors must not be retryable")
	}
}

func TestSearchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "oak sideboard" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("unexpected limit %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"products": []models.Product{{ID: "p1", Name: "Oak sideboard"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	products, err := c.SearchProducts(context.Background(), "oak sideboard", 5)
	if err != nil {
		t.Fatalf("SearchProducts() error = %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestUploadRoomPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("unexpected content type %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"ref": "rooms/abc"})
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	ref, err := c.UploadRoomPhoto(context.Background(), []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("UploadRoomPhoto() error = %v", err)
	}
	if ref != "rooms/abc" {
		t.Fatalf("unexpected ref %q", ref)
	}
}
