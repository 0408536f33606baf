// internal/scrape/transport.go
package scrape

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var (
	gzipReaderPool = sync.Pool{
		New: func() interface{} { return new(gzip.Reader) },
	}
	brotliReaderPool = sync.Pool{
		New: func() interface{} { return brotli.NewReader(nil) },
	}
)

// acceptEncoding lists the codings the transport can undo, best first.
const acceptEncoding = "br, gzip, deflate"

// compressionTransport advertises compression support and transparently
// decodes response bodies.
type compressionTransport struct {
	base http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil) with response decompression.
func NewTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &compressionTransport{base: base}
}

func (t *compressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := decompress(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return resp, nil
}

// pooledBody closes the decoder and the original body, returning pooled
// readers on the way out.
type pooledBody struct {
	io.ReadCloser
	original io.ReadCloser
	release  func()
}

func (b *pooledBody) Close() error {
	err := errors.Join(b.ReadCloser.Close(), b.original.Close())
	if b.release != nil {
		b.release()
		b.release = nil
	}
	return err
}

// decompress replaces resp.Body with a decoding reader for every layer in
// Content-Encoding, undoing them in reverse order of application.
func decompress(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	encodings := resp.Header.Values("Content-Encoding")
	if len(encodings) == 0 {
		return nil
	}

	var layers []string
	for _, v := range encodings {
		for _, e := range strings.Split(v, ",") {
			layers = append(layers, strings.ToLower(strings.TrimSpace(e)))
		}
	}

	for i := len(layers) - 1; i >= 0; i-- {
		var (
			reader  io.ReadCloser
			release func()
		)

		switch layers[i] {
		case "gzip", "x-gzip":
			zr := gzipReaderPool.Get().(*gzip.Reader)
			if err := zr.Reset(resp.Body); err != nil {
				gzipReaderPool.Put(zr)
				return fmt.Errorf("gzip: %w", err)
			}
			reader = zr
			release = func() {
				_ = zr.Reset(strings.NewReader(""))
				gzipReaderPool.Put(zr)
			}

		case "br":
			br := brotliReaderPool.Get().(*brotli.Reader)
			if err := br.Reset(resp.Body); err != nil {
				brotliReaderPool.Put(br)
				return fmt.Errorf("brotli: %w", err)
			}
			reader = io.NopCloser(br)
			release = func() {
				_ = br.Reset(strings.NewReader(""))
				brotliReaderPool.Put(br)
			}

		case "deflate":
			zr, err := zlib.NewReader(resp.Body)
			if err != nil {
				return fmt.Errorf("deflate: %w", err)
			}
			reader = zr

		case "identity", "":
			continue

		default:
			return fmt.Errorf("unsupported Content-Encoding %q", layers[i])
		}

		resp.Body = &pooledBody{ReadCloser: reader, original: resp.Body, release: release}
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}
