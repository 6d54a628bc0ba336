package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the value of the "v" field of every response.
const EnvelopeVersion = 1

// Envelope wraps every JSON response body.
//
// Success:  {"v":1,"success":true,"data":{...}}
// Failure:  {"v":1,"success":false,"error":"msg","code":"NOT_FOUND","message":"msg","details":...}
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in
// an Envelope. Errors produced by RegisterErrorHandler become failure
// envelopes; everything else is success data.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *Envelope:
		return body, nil
	case *APIError:
		return &Envelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Message,
			Code:    body.Code,
			Message: body.Message,
			Details: body.Details,
		}, nil
	case huma.StatusError:
		return &Envelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Error(),
			Code:    statusToCode(body.GetStatus()),
			Message: body.Error(),
		}, nil
	}
	return &Envelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
