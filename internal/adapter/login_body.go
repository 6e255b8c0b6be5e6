package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/secret"
)

const hexDigits = "0123456789abcdef"

// loginBody renders req with password into a locked buffer. The password is
// escaped straight into the buffer and never becomes a Go string.
func loginBody(req loginRequest, password []byte) (*secret.Buffer, error) {
	req.Password = ""
	head, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	const field = `,"password":"`
	head = head[:len(head)-1] // drop the closing brace
	size := len(head) + len(field) + escapedLen(password) + len(`"}`)

	body, err := secret.New(size)
	if err != nil {
		return nil, err
	}

	_ = body.Use(func(dst []byte) error {
		n := copy(dst, head)
		n += copy(dst[n:], field)
		n += escapeJSON(dst[n:], password)
		copy(dst[n:], `"}`)
		return nil
	})
	return body, nil
}

func escapedLen(p []byte) int {
	n := 0
	for _, c := range p {
		switch {
		case c == '"' || c == '\\':
			n += 2
		case c < 0x20:
			n += 6
		default:
			n++
		}
	}
	return n
}

// escapeJSON writes p as the inside of a JSON string and returns the number
// of bytes written. dst must hold escapedLen(p) bytes.
func escapeJSON(dst, p []byte) int {
	n := 0
	for _, c := range p {
		switch {
		case c == '"' || c == '\\':
			dst[n], dst[n+1] = '\\', c
			n += 2
		case c < 0x20:
			copy(dst[n:], `\u00`)
			dst[n+4], dst[n+5] = hexDigits[c>>4], hexDigits[c&0xf]
			n += 6
		default:
			dst[n] = c
			n++
		}
	}
	return n
}
