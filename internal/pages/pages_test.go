package pages

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPages(t *testing.T) {
	t.Run("Success is an html document", func(t *testing.T) {
		body := string(Success())
		if !strings.HasPrefix(body, "<!DOCTYPE html>") {
			t.Error("expected doctype")
		}
		if !strings.Contains(body, "Authentication Successful") {
			t.Error("expected success heading")
		}
	})

	t.Run("Scan posts multipart to upload", func(t *testing.T) {
		body := string(Scan())
		for _, want := range []string{`form.append("file"`, `xhr.open("POST", "/upload")`, "xhr.status >= 200"} {
			if !strings.Contains(body, want) {
				t.Errorf("expected scan page to contain %q", want)
			}
		}
	})
}

func TestWriteHTML(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteHTML(rec, Success()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %s", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), Success()) {
		t.Error("body does not match page")
	}
}

func TestRawResponse(t *testing.T) {
	raw := RawResponse(Success())

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		t.Fatalf("raw response should parse as HTTP: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %s", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !bytes.Equal(body, Success()) {
		t.Error("body does not match page")
	}
}
