package bitmart

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// decodeFrame inflates a raw-deflate-compressed frame and parses the result
// into a message envelope. The payload bytes themselves are compressed; this
// is not websocket-native compression. An empty inflate result is not an
// error: decodeFrame returns (nil, nil) and the caller skips the frame.
// Malformed JSON after a successful inflate is a defect in the protocol
// contract and is returned as an error.
func decodeFrame(raw []byte) (*Envelope, error) {
	payload, err := inflateRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("inflating frame: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("parsing frame payload: %w", err)
	}
	return &envelope, nil
}

func inflateRaw(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	reader := flate.NewReader(bytes.NewReader(raw))
	defer reader.Close()
	return io.ReadAll(reader)
}
