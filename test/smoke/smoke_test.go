// Package smoke provides smoke tests for the stylo API.
// Expects a running stylo server at baseURL with AUTH_SECRET set to the
// value of the STYLO_AUTH_SECRET environment variable.
package smoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stylo-app/stylo/infrastructure/api/middleware"
)

const (
	baseHost = "127.0.0.1"
	basePort = 8080
)

var rootURL = fmt.Sprintf("http://%s:%d", baseHost, basePort)
var baseURL = rootURL + "/v2"

func TestSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	secret := os.Getenv("STYLO_AUTH_SECRET")
	if secret == "" {
		t.Skip("skipping: STYLO_AUTH_SECRET not set")
	}

	token, err := middleware.SignToken(secret, "smoke-test-owner", nil)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	t.Run("health", func(t *testing.T) {
		verifyHealth(t)
	})

	t.Run("ready", func(t *testing.T) {
		waitForReady(t)
	})

	t.Run("unauthenticated_rejected", func(t *testing.T) {
		rsp, err := http.Get(baseURL + "/items")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer func() { _ = rsp.Body.Close() }()
		if rsp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rsp.StatusCode)
		}
	})

	// Create an item, request a suggestion, then clean up.
	itemID := createItem(t, token, map[string]any{
		"slot":        "top",
		"type":        "shirt",
		"color":       "white",
		"description": "crisp white oxford shirt",
	})
	t.Logf("created item %s", itemID)
	defer deleteItem(t, token, itemID)

	t.Run("item_round_trip", func(t *testing.T) {
		var item struct {
			ID   string `json:"id"`
			Slot string `json:"slot"`
		}
		doJSON(t, token, http.MethodGet, "/items/"+itemID, nil, http.StatusOK, &item)
		if item.Slot != "top" {
			t.Fatalf("expected slot top, got %q", item.Slot)
		}
	})

	t.Run("suggestion", func(t *testing.T) {
		var suggestion struct {
			Intent  string `json:"intent"`
			Outfits []any  `json:"outfits"`
		}
		doJSON(t, token, http.MethodPost, "/suggestions", map[string]any{
			"text": "what should I wear to a business meeting",
		}, http.StatusOK, &suggestion)
		if suggestion.Intent == "" {
			t.Fatal("expected a classified intent")
		}
		t.Logf("intent %s, %d outfits", suggestion.Intent, len(suggestion.Outfits))
	})

	t.Run("empty_text_rejected", func(t *testing.T) {
		doJSON(t, token, http.MethodPost, "/suggestions", map[string]any{
			"text": "",
		}, http.StatusBadRequest, nil)
	})
}

func verifyHealth(t *testing.T) {
	t.Helper()
	rsp, err := http.Get(rootURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer func() { _ = rsp.Body.Close() }()
	if rsp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", rsp.StatusCode)
	}
}

// waitForReady polls /ready until the server reports ready or the
// deadline passes. Model warmup can take a while on first start.
func waitForReady(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		rsp, err := http.Get(rootURL + "/ready")
		if err == nil {
			status := rsp.StatusCode
			_ = rsp.Body.Close()
			if status == http.StatusOK {
				return
			}
		}
		time.Sleep(2 * time.Second)
	}
	t.Fatal("server did not become ready")
}

func createItem(t *testing.T, token string, body map[string]any) string {
	t.Helper()
	var item struct {
		ID string `json:"id"`
	}
	doJSON(t, token, http.MethodPost, "/items", body, http.StatusCreated, &item)
	if item.ID == "" {
		t.Fatal("expected created item id")
	}
	return item.ID
}

func deleteItem(t *testing.T, token, id string) {
	t.Helper()
	doJSON(t, token, http.MethodDelete, "/items/"+id, nil, http.StatusNoContent, nil)
}

// doJSON issues an authenticated request and decodes the response into out.
func doJSON(t *testing.T, token, method, path string, body map[string]any, wantStatus int, out any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = rsp.Body.Close() }()

	if rsp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", method, path, wantStatus, rsp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(rsp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}
