package client

import (
	"net/http"
	"net/url"
	"time"

	careerrors "github.com/matzehuels/careflow/pkg/errors"
	"github.com/matzehuels/careflow/pkg/retry"
)

// Request describes one logical call for [Client.Do].
type Request struct {
	Method string // defaults to GET
	Path   string // relative to the base URL, starting with "/"
	Query  url.Values
	Body   any // JSON-encoded unless []byte or json.RawMessage
	Header http.Header
}

// Response is the outcome of the final attempt of a call.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	Duration  time.Duration // of the final attempt
	RequestID string        // X-Request-ID sent with the final attempt

	method, path string
}

// StatusCode returns the HTTP status.
func (r *Response) StatusCode() int { return r.Status }

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	return decode(r.Body, v, r.path)
}

// Err returns a *errors.StatusError for a non-2xx response and nil otherwise.
func (r *Response) Err() error {
	if retry.IsSuccess(r.Status) {
		return nil
	}
	return r.statusError()
}

func (r *Response) statusError() *careerrors.StatusError {
	body := string(r.Body)
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return &careerrors.StatusError{
		StatusCode: r.Status,
		Method:     r.method,
		URL:        r.path,
		Body:       body,
	}
}
