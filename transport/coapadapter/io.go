package coapadapter

import (
	"bytes"
	"io"

	"github.com/plgd-dev/go-coap/v2/message/pool"
)

// bytesReadSeeker adapts a byte slice to the io.ReadSeeker go-coap's
// Post/Put expect for a request/response body.
type bytesReadSeeker struct {
	*bytes.Reader
}

func newBytesReadSeeker(b []byte) *bytesReadSeeker {
	return &bytesReadSeeker{Reader: bytes.NewReader(b)}
}

// readAll drains an io.Reader body (a mux.Message's Body, or nil) into
// a byte slice, tolerating a nil reader as an empty payload.
func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

// readAllBody drains a pool.Message's response body the same way.
func readAllBody(m *pool.Message) ([]byte, error) {
	if m.Body() == nil {
		return nil, nil
	}
	return io.ReadAll(m.Body())
}
