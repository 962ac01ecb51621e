package models

import "errors"

// Envelope is the wire format of every response: code 0 on success, a
// nonzero semantic code on failure, plus a human-readable message and an
// optional payload.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK wraps a payload in a success envelope.
func OK(data interface{}) Envelope {
	return Envelope{Code: 0, Message: "ok", Data: data}
}

// Fail builds a failure envelope from an error, mapping AppError codes to
// their numeric wire codes and hiding internal details.
func Fail(err error) Envelope {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Envelope{Code: EnvelopeCode(appErr.Code), Message: appErr.Message}
	}
	return Envelope{Code: 500, Message: "Internal server error"}
}
