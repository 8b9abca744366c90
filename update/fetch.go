package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Puller streams a package from uri, calling onChunk for each block of
// bytes read. The engine fetches the package over HTTP(S) or CoAP at
// that URI: the HTTP(S) branch is the concrete implementation below; a
// CoAP block-transfer puller can satisfy the same interface without the
// engine caring which one ran.
type Puller interface {
	Pull(ctx context.Context, uri string, onChunk func(chunk []byte) error) (size int64, err error)
}

// httpPuller fetches a package over plain HTTP or HTTPS with a
// streaming GET, honoring ctx cancellation for the abort-via-empty-URI
// path.
type httpPuller struct {
	client *http.Client
	chunk  int
}

// newHTTPPuller creates a Puller for the http/https schemes.
func newHTTPPuller() *httpPuller {
	return &httpPuller{client: http.DefaultClient, chunk: 4096}
}

func (p *httpPuller) Pull(ctx context.Context, uri string, onChunk func(chunk []byte) error) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("update: unexpected status %d fetching package", resp.StatusCode)
	}

	buf := make([]byte, p.chunk)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if err := onChunk(buf[:n]); err != nil {
				return 0, err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, readErr
		}
	}
	return resp.ContentLength, nil
}

// pullerForScheme selects a Puller by uri's scheme. Only http/https are
// supported by the bundled implementation; any other scheme (including
// CoAP's coap/coaps, left for a real block-transfer client to plug in
// via the Puller interface) returns an error, which SetPackageURI
// records as an invalid-URI result.
func pullerForScheme(uri string) (Puller, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	switch parsed.Scheme {
	case "http", "https":
		return newHTTPPuller(), nil
	default:
		return nil, fmt.Errorf("update: unsupported package URI scheme %q", parsed.Scheme)
	}
}
