package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"coffeeshop/internal/auth/authtest"
	"coffeeshop/internal/db"
	"coffeeshop/internal/db/mock"
)

var (
	authorityOnce sync.Once
	authority     *authtest.Authority
	authorityErr  error
)

func testAuthority(t *testing.T) *authtest.Authority {
	t.Helper()
	authorityOnce.Do(func() {
		authority, authorityErr = authtest.NewAuthority()
	})
	if authorityErr != nil {
		t.Fatalf("failed to create token authority: %v", authorityErr)
	}
	return authority
}

func openMockDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := mock.New(context.Background())
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func newTestAPI(t *testing.T) (*API, *gorm.DB) {
	t.Helper()
	database := openMockDatabase(t)
	return NewAPI(db.NewDrinkRepository(database), testAuthority(t).Verifier()), database
}

func bearer(t *testing.T, permissions ...string) string {
	t.Helper()
	token, err := testAuthority(t).Token(permissions...)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return "Bearer " + token
}

type request struct {
	method        string
	target        string
	id            string
	body          string
	authorization string
}

func (rq request) serve(h http.Handler) *httptest.ResponseRecorder {
	var body io.Reader
	if rq.body != "" {
		body = strings.NewReader(rq.body)
	}
	req := httptest.NewRequest(rq.method, rq.target, body)
	if rq.id != "" {
		req.SetPathValue("id", rq.id)
	}
	if rq.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if rq.authorization != "" {
		req.Header.Set("Authorization", rq.authorization)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type drinkPayload struct {
	ID     uint             `json:"id"`
	Title  string           `json:"title"`
	Recipe []map[string]any `json:"recipe"`
}

type responsePayload struct {
	Success bool           `json:"success"`
	Drinks  []drinkPayload `json:"drinks"`
	Delete  uint           `json:"delete"`
	Error   int            `json:"error"`
	Message string         `json:"message"`
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) responsePayload {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
	var payload responsePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload.Success {
		t.Fatal("expected success to be false")
	}
	if payload.Error != status {
		t.Fatalf("expected error %d in envelope, got %d", status, payload.Error)
	}
	if message != "" && payload.Message != message {
		t.Fatalf("expected message %q, got %q", message, payload.Message)
	}
}
