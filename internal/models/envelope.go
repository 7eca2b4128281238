package models

import (
	"bytes"
	"encoding/json"
)

// EnvelopeStatus is the discriminant of the backend response envelope.
type EnvelopeStatus string

const (
	StatusSuccess EnvelopeStatus = "success"
	StatusFail    EnvelopeStatus = "fail"
)

// EnvelopeError describes a failure reported by the backend.
type EnvelopeError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope is the uniform wrapper around every backend response body.
type Envelope struct {
	Status   EnvelopeStatus         `json:"status,omitempty"`
	Data     json.RawMessage        `json:"data,omitempty"`
	Metadata SerializableOrderedMap `json:"metadata"`
	Links    SerializableOrderedMap `json:"links"`
	Error    *EnvelopeError         `json:"error,omitempty"`
}

// HasData reports whether the envelope carries a payload. A JSON null counts as absent.
func (e Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func (e Envelope) Succeeded() bool {
	return e.Status == StatusSuccess
}

// NewSuccessEnvelope wraps data in a success envelope with empty metadata and links.
func NewSuccessEnvelope(data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Status:   StatusSuccess,
		Data:     raw,
		Metadata: NewSerializableOrderedMap(),
		Links:    NewSerializableOrderedMap(),
	}, nil
}

func NewFailEnvelope(code int, message string, details map[string]any) Envelope {
	return Envelope{
		Status:   StatusFail,
		Metadata: NewSerializableOrderedMap(),
		Links:    NewSerializableOrderedMap(),
		Error:    &EnvelopeError{Code: code, Message: message, Details: details},
	}
}
