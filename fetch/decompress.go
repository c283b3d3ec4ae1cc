package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/klauspost/compress/zstd"
)

// DecompressResponseBody decodes a response body according to its
// content-encoding header. Document hosts tend to compress listing pages even
// when the client never asked for it.
func DecompressResponseBody(r *colly.Response) ([]byte, error) {
	encoding := r.Headers.Get("content-encoding")

	reader, err := contentDecoder(encoding, bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress response body (%s): %s", encoding, err)
	}

	return data, nil
}

// contentDecoder wraps input with a decompressing reader matching given
// encoding name. Plain bodies pass through unchanged.
func contentDecoder(encoding string, input io.Reader) (io.Reader, error) {
	switch encoding {
	case "", "identity":
		return input, nil
	case "br":
		return brotli.NewReader(input), nil
	case "deflate":
		return flate.NewReader(input), nil
	case "gzip":
		return gzip.NewReader(input)
	case "zstd":
		return zstd.NewReader(input)
	default:
		return nil, fmt.Errorf("unknown content-encoding: %s", encoding)
	}
}
