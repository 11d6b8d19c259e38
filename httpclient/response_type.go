package httpclient

import (
	"fmt"
	"strings"
)

// ResponseType selects how a response body is decoded into Response.Data.
type ResponseType int

const (
	// ResponseJSON decodes the body as JSON into an any value. Zero value.
	ResponseJSON ResponseType = iota
	// ResponseText returns the body as a string.
	ResponseText
	// ResponseBlob returns a Blob carrying the content type and raw bytes.
	ResponseBlob
	// ResponseArrayBuffer returns the raw []byte.
	ResponseArrayBuffer
)

var responseTypeNames = [...]string{
	ResponseJSON:        "json",
	ResponseText:        "text",
	ResponseBlob:        "blob",
	ResponseArrayBuffer: "arraybuffer",
}

func (t ResponseType) String() string {
	if t.Valid() {
		return responseTypeNames[t]
	}
	return fmt.Sprintf("ResponseType(%d)", int(t))
}

// Valid reports whether t is one of the declared response types.
func (t ResponseType) Valid() bool {
	return t >= ResponseJSON && t <= ResponseArrayBuffer
}

// ParseResponseType maps "json", "text", "blob" or "arraybuffer" to a
// ResponseType. The empty string means json.
func ParseResponseType(s string) (ResponseType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ResponseJSON, nil
	}
	for i, name := range responseTypeNames {
		if name == s {
			return ResponseType(i), nil
		}
	}
	return ResponseJSON, fmt.Errorf("unknown response type %q", s)
}
