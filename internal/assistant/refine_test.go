package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anyclick/anyclick/capture"
)

func TestRefine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SelectedText != "make this faster" {
			t.Errorf("selectedText: %q", req.SelectedText)
		}
		if req.SystemPrompt != "be terse" {
			t.Errorf("systemPrompt: %q (default not applied)", req.SystemPrompt)
		}
		if req.Context.Selector != "#editor" {
			t.Errorf("context selector: %q", req.Context.Selector)
		}
		json.NewEncoder(w).Encode(Response{RefinedPrompt: "Optimize the editor's render loop"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL, SystemPrompt: "be terse"})
	out, err := c.Refine(context.Background(), Request{
		SelectedText: "make this faster",
		Context:      capture.ElementContext{Selector: "#editor"},
	})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if out.RefinedPrompt != "Optimize the editor's render loop" {
		t.Errorf("refined: %q", out.RefinedPrompt)
	}
}

func TestRefine_NotConfigured(t *testing.T) {
	c := NewClient(ClientConfig{})
	_, err := c.Refine(context.Background(), Request{SelectedText: "x"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err: %v, want ErrNotConfigured", err)
	}
}

func TestRefine_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL})
	if _, err := c.Refine(context.Background(), Request{SelectedText: "x"}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestRefine_EmptyPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL})
	if _, err := c.Refine(context.Background(), Request{SelectedText: "x"}); err == nil {
		t.Fatal("expected error for empty refinedPrompt")
	}
}
