package mlclient

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// DecodeImage decodes a base64 image, optionally wrapped in a
// "data:...;base64," URI, and picks a file extension from its signature.
func DecodeImage(s string) ([]byte, string, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx < 0 {
			return nil, "", errors.New("data uri is not base64 encoded")
		}
		payload = payload[idx+len(";base64,"):]
	}
	if payload == "" {
		return nil, "", errors.New("empty image payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 image: %w", err)
		}
	}
	return data, SniffExt(data), nil
}

// SniffExt returns "jpg" for a JPEG signature. Everything else, PNG included,
// is stored as "png".
func SniffExt(data []byte) string {
	if bytes.HasPrefix(data, jpegMagic) {
		return "jpg"
	}
	return "png"
}
