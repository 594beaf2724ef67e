package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	careerrors "github.com/matzehuels/careflow/pkg/errors"
)

// Kind is the closed set of failure shapes the executor distinguishes.
type Kind int

const (
	// KindOther covers application errors and anything unrecognised.
	KindOther Kind = iota
	// KindTimeout means the operation ran out of time waiting for a response.
	KindTimeout
	// KindNetworkUnreachable means no connection could be made or it was lost.
	KindNetworkUnreachable
	// KindHTTPStatus means the remote side answered with a failure status.
	KindHTTPStatus
)

// String returns a label suitable for logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "other"
	}
}

// Classification is the retry verdict for a single failure.
type Classification struct {
	Kind       Kind
	StatusCode int // set for KindHTTPStatus and status classifications
	Retryable  bool
	Reason     string
}

// retryableStatus lists transient server answers.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// KindOf maps err onto a [Kind], returning the HTTP status for KindHTTPStatus.
//
// Errors produced by careflow carry their kind as an error code. Raw errors
// from the standard library are recognised by type: context deadlines and
// net.Error timeouts are timeouts; refused, reset and unresolvable
// connections are unreachable.
func KindOf(err error) (Kind, int) {
	if err == nil {
		return KindOther, 0
	}

	switch careerrors.GetCode(err) {
	case careerrors.ErrCodeTimeout:
		return KindTimeout, 0
	case careerrors.ErrCodeNetworkUnreachable:
		return KindNetworkUnreachable, 0
	case careerrors.ErrCodeHTTPStatus, careerrors.ErrCodeRateLimited, careerrors.ErrCodeNotFound,
		careerrors.ErrCodeUnauthorized, careerrors.ErrCodeForbidden:
		if status, ok := careerrors.StatusOf(err); ok {
			return KindHTTPStatus, status
		}
	}

	if errors.Is(err, context.Canceled) {
		return KindOther, 0
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, 0
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, 0
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindNetworkUnreachable, 0
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetworkUnreachable, 0
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetworkUnreachable, 0
	}
	return KindOther, 0
}

// Classify decides whether a thrown error is worth another attempt.
// Only timeouts and unreachable networks are retryable; HTTP status errors
// are left to [ClassifyStatus] and status-aware retries.
func Classify(err error) Classification {
	kind, status := KindOf(err)
	switch kind {
	case KindTimeout:
		return Classification{Kind: kind, Retryable: true, Reason: "request timed out"}
	case KindNetworkUnreachable:
		return Classification{Kind: kind, Retryable: true, Reason: "network unreachable"}
	case KindHTTPStatus:
		return Classification{Kind: kind, StatusCode: status, Reason: fmt.Sprintf("status %d is not retried for thrown errors", status)}
	default:
		return Classification{Kind: KindOther, Reason: "application error"}
	}
}

// ClassifyStatus decides whether an HTTP status is worth another attempt.
// Successful statuses are never retried; 408, 429, 500, 502, 503 and 504 are.
func ClassifyStatus(code int) Classification {
	c := Classification{Kind: KindHTTPStatus, StatusCode: code}
	switch {
	case IsSuccess(code):
		c.Reason = "success"
	case retryableStatus[code]:
		c.Retryable = true
		c.Reason = fmt.Sprintf("transient status %d", code)
	default:
		c.Reason = fmt.Sprintf("status %d is not transient", code)
	}
	return c
}

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
