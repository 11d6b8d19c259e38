package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
)

const contentTypeJSON = "application/json"

// encodeBody turns a request body into bytes that can be replayed on every
// attempt. structured is true when the value was JSON-encoded here.
func encodeBody(body any) (data []byte, structured bool, err error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return b, false, nil
	case string:
		return []byte(b), false, nil
	case json.RawMessage:
		return b, true, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, false, fmt.Errorf("read request body: %w", err)
		}
		return data, false, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, fmt.Errorf("encode request body: %w", err)
		}
		return data, true, nil
	}
}

// decodeBody parses body according to rt. A JSON response with status 204 or
// no content decodes to an empty object.
func decodeBody(rt ResponseType, status int, header nethttp.Header, body []byte) (any, error) {
	switch rt {
	case ResponseJSON:
		if status == nethttp.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
			return map[string]any{}, nil
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ResponseText:
		return string(body), nil
	case ResponseBlob:
		return Blob{Type: header.Get("Content-Type"), Data: body}, nil
	case ResponseArrayBuffer:
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported response type %s", rt)
	}
}
