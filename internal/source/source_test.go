package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/LUBTFY/agent-starter-pack/internal/pkg/errors"
)

func TestFetchSkipsRepositoryHosts(t *testing.T) {
	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), "https://github.com/some/repo")
	require.ErrorIs(t, err, apperrors.ErrSkipped)
}

func TestFetchScrapesGenericPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<style>body { color: red; }</style>
			<script>var tracking = true;</script>
		</head><body>
			<h1>Getting  Started</h1>
			<p>Install the   package.</p>
			<noscript>enable javascript</noscript>
		</body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Getting Started Install the package.", got)
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
}

func TestIsMarkdown(t *testing.T) {
	require.True(t, isMarkdown("https://a.test/readme.md", "text/plain"))
	require.True(t, isMarkdown("https://a.test/readme.md?ref=main", "text/plain"))
	require.True(t, isMarkdown("https://a.test/page", "text/markdown; charset=utf-8"))
	require.False(t, isMarkdown("https://a.test/page?file=x.md", "text/html"))
	require.False(t, isMarkdown("https://a.test/page", "text/html"))
}

func TestMarkdownToTextKeepsCodeBlocks(t *testing.T) {
	body := []byte("# Title\n\nSome *formatted* text.\n\n```go\nfunc main() {}\n```\n")
	got, err := markdownToText(body)
	require.NoError(t, err)
	require.Equal(t, "Title\n\nSome formatted text.\n\nfunc main() {}", got)
}

func TestParseTranscript(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.1">hello &amp; welcome</text>
  <text start="2.1" dur="1.4">  to the talk  </text>
  <text start="3.5" dur="0.5"></text>
</transcript>`)

	got, err := parseTranscript(body, "vid123")
	require.NoError(t, err)
	require.Equal(t, "hello & welcome to the talk", got)
}

func TestParseTranscriptEmpty(t *testing.T) {
	_, err := parseTranscript([]byte(`<transcript></transcript>`), "vid123")
	if err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestTitleIsHost(t *testing.T) {
	require.Equal(t, "docs.example.com", Title("https://docs.example.com/guide/intro"))
	require.Equal(t, "::not a url::", Title("::not a url::"))
}
