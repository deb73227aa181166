package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/fplscout/transfer-advisor/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "invalid input", err: usecase.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantReason: "invalidInput"},
		{name: "not found", err: usecase.ErrNotFound, wantStatus: http.StatusNotFound, wantReason: "notFound"},
		{name: "unauthorized", err: usecase.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantReason: "unauthorized"},
		{name: "upstream unavailable", err: usecase.ErrUpstreamUnavailable, wantStatus: http.StatusServiceUnavailable, wantReason: "upstreamUnavailable"},
		{name: "upstream timeout", err: usecase.ErrUpstreamTimeout, wantStatus: http.StatusGatewayTimeout, wantReason: "upstreamTimeout"},
		{name: "wrapped timeout", err: fmt.Errorf("%w: fetch catalog", usecase.ErrUpstreamTimeout), wantStatus: http.StatusGatewayTimeout, wantReason: "upstreamTimeout"},
		{name: "rejection forbidden", err: &usecase.UpstreamRejectionError{StatusCode: http.StatusForbidden}, wantStatus: http.StatusUnauthorized, wantReason: "upstreamRejected"},
		{name: "rejection bad request", err: &usecase.UpstreamRejectionError{StatusCode: http.StatusBadRequest}, wantStatus: http.StatusBadRequest, wantReason: "upstreamRejected"},
		{name: "rejection not found", err: &usecase.UpstreamRejectionError{StatusCode: http.StatusNotFound}, wantStatus: http.StatusNotFound, wantReason: "upstreamRejected"},
		{name: "wrapped rejection", err: fmt.Errorf("execute transfer entry_id=1: %w", &usecase.UpstreamRejectionError{StatusCode: http.StatusConflict}), wantStatus: http.StatusUnprocessableEntity, wantReason: "upstreamRejected"},
		{name: "unknown", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantReason: "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if got.HTTPStatus != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, got.HTTPStatus)
			}
			if got.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, got.Reason)
			}
		})
	}
}
