package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	// Data is the raw JSON body; nil only for 204 and 205.
	Data json.RawMessage
}

// Decode unmarshals the whole body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return &Error{Kind: ErrParse, StatusCode: r.StatusCode, Message: msgParseError, Err: err}
	}
	return nil
}

// Unwrap unmarshals the payload into v, stepping into the {"data": ...}
// envelope when the API used one.
func (r *Response) Unwrap(v any) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(Payload(r.Data), v); err != nil {
		return &Error{Kind: ErrParse, StatusCode: r.StatusCode, Message: msgParseError, Err: err}
	}
	return nil
}

// Payload returns the value under "data" when raw is an object carrying a
// non-null data field, and raw itself otherwise.
func Payload(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	if len(envelope.Data) == 0 || bytes.Equal(envelope.Data, []byte("null")) {
		return raw
	}
	return envelope.Data
}

// interpret turns a completed round trip into a Response or a typed failure.
func interpret(status int, body []byte) (*Response, *Error) {
	if status >= 200 && status < 300 {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 && bodiless(status) {
			return &Response{StatusCode: status}, nil
		}
		if len(trimmed) == 0 || !json.Valid(trimmed) {
			return nil, &Error{Kind: ErrParse, StatusCode: status, Message: msgParseError}
		}
		return &Response{StatusCode: status, Data: json.RawMessage(trimmed)}, nil
	}

	message := errorMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = msgSessionExpired
		}
		return nil, &Error{Kind: ErrAuthRequired, StatusCode: status, Message: message}
	case status >= 500:
		return nil, transient(status, message, nil)
	default:
		if message == "" {
			message = msgServerError
		}
		return nil, &Error{Kind: ErrBusiness, StatusCode: status, Message: message}
	}
}

// bodiless reports whether a 2xx status carries no content by definition.
func bodiless(status int) bool {
	return status == http.StatusNoContent || status == http.StatusResetContent
}

// errorMessage extracts "message", then "error", from a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
