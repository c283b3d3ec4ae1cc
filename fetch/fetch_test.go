package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/klauspost/compress/zstd"
)

func TestDecompressResponseBody(t *testing.T) {
	payload := []byte("deckwash listing page")

	gzipBuf := bytes.NewBuffer(nil)
	gzipWriter := gzip.NewWriter(gzipBuf)
	gzipWriter.Write(payload)
	gzipWriter.Close()

	flateBuf := bytes.NewBuffer(nil)
	flateWriter, err := flate.NewWriter(flateBuf, flate.BestSpeed)
	if err != nil {
		t.Fatalf("failed to create flate writer: %s", err)
	}
	flateWriter.Write(payload)
	flateWriter.Close()

	brotliBuf := bytes.NewBuffer(nil)
	brotliWriter := brotli.NewWriter(brotliBuf)
	brotliWriter.Write(payload)
	brotliWriter.Close()

	zstdBuf := bytes.NewBuffer(nil)
	zstdWriter, err := zstd.NewWriter(zstdBuf)
	if err != nil {
		t.Fatalf("failed to create zstd writer: %s", err)
	}
	zstdWriter.Write(payload)
	zstdWriter.Close()

	cases := []struct {
		encoding string
		body     []byte
	}{
		{"", payload},
		{"identity", payload},
		{"gzip", gzipBuf.Bytes()},
		{"deflate", flateBuf.Bytes()},
		{"br", brotliBuf.Bytes()},
		{"zstd", zstdBuf.Bytes()},
	}

	for _, c := range cases {
		headers := http.Header{}
		if c.encoding != "" {
			headers.Set("content-encoding", c.encoding)
		}

		resp := &colly.Response{Body: c.body, Headers: &headers}
		got, err := DecompressResponseBody(resp)
		if err != nil {
			t.Errorf("encoding %q: %s", c.encoding, err)
			continue
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("encoding %q: got %q", c.encoding, got)
		}
	}

	headers := http.Header{}
	headers.Set("content-encoding", "lzma")
	if _, err := DecompressResponseBody(&colly.Response{Body: payload, Headers: &headers}); err == nil {
		t.Errorf("expecting error for unknown encoding")
	}
}

func TestIsPDFLink(t *testing.T) {
	if !isPDFLink("https://example.com/docs/slides.PDF?dl=1") {
		t.Errorf("uppercase extension with query should match")
	}
	if isPDFLink("https://example.com/docs/slides.html") {
		t.Errorf("HTML link should not match")
	}
}

func TestOutputNameForURL(t *testing.T) {
	if got := OutputNameForURL("https://example.com/a/b/deck.pdf"); got != "deck.pdf" {
		t.Errorf("got %q", got)
	}
	if got := OutputNameForURL("https://example.com/"); got != "document.pdf" {
		t.Errorf("got %q", got)
	}
}

func TestCollectDocumentLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/files/a.pdf">a</a>
			<a href="/files/b.pdf">b</a>
			<a href="/files/b.pdf">duplicate</a>
			<a href="/files/notes.txt">notes</a>
		</body></html>`)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	links, err := CollectDocumentLinks(ts.URL, Options{})
	if err != nil {
		t.Fatalf("collect failed: %s", err)
	}

	want := []string{ts.URL + "/files/a.pdf", ts.URL + "/files/b.pdf"}
	if len(links) != len(want) {
		t.Fatalf("got %d links: %v", len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: got %q, want %q", i, links[i], want[i])
		}
	}
}

func TestDownloadFile(t *testing.T) {
	content := []byte("%PDF-1.4 fake document")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer ts.Close()

	outputName := filepath.Join(t.TempDir(), "deck.pdf")
	if err := DownloadFile(ts.URL+"/deck.pdf", outputName, Options{}); err != nil {
		t.Fatalf("download failed: %s", err)
	}

	got, err := os.ReadFile(outputName)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %s", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("downloaded content mismatch")
	}
}
