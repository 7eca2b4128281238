package apiclient

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/models"
)

// ResponseValidator decides whether an envelope counts as a success.
type ResponseValidator func(models.Envelope) bool

// Request describes one call to the backend.
type Request struct {
	Endpoint string
	Method   string
	// Body is encoded as JSON when it is not nil
	Body  any
	Query url.Values
	// RequireAuth attaches the session access token and enables the refresh on 401
	RequireAuth bool
	// HandleTokens marks calls that issue a token pair under data.tokens
	HandleTokens     bool
	ValidateResponse ResponseValidator
}

func (r Request) validator() ResponseValidator {
	if r.ValidateResponse != nil {
		return r.ValidateResponse
	}
	return models.Envelope.Succeeded
}

// Response is the successful outcome of a call.
type Response struct {
	Data       json.RawMessage
	Metadata   models.SerializableOrderedMap
	Links      models.SerializableOrderedMap
	StatusCode int
	// Tokens is set only for calls with HandleTokens
	Tokens *models.TokenPair
}

// Decode unmarshals the payload of a response.
func Decode[T any](res Response) (T, error) {
	var output T
	err := json.Unmarshal(res.Data, &output)
	if err != nil {
		return output, apierrors.NewMalformedResponse(res.StatusCode, fmt.Errorf("cannot decode the payload: %w", err))
	}
	return output, nil
}

type tokensPayload struct {
	Tokens *models.TokenPair `json:"tokens"`
}
