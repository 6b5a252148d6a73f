package s3svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

var (
	// ErrMissingCredentials is returned when one of the four connection strings is empty.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrCredentialLength is returned when a key length does not fit the detected provider.
	ErrCredentialLength = errors.New("credential length mismatch")
	// ErrNetwork wraps transport failures (DNS, TLS, timeouts, refused connections).
	ErrNetwork = errors.New("network error")
	// ErrList is returned when the first page of a listing fails.
	ErrList = errors.New("list objects failed")
	// ErrFetch is returned when an object cannot be downloaded.
	ErrFetch = errors.New("get object failed")
)

// StatusError is a non-2xx answer of the object store.
type StatusError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: server error %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// classifyError turns an SDK error into ErrNetwork or a *StatusError.
func classifyError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
	}

	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		se := &StatusError{Op: op, StatusCode: withStatus.HTTPStatusCode()}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			se.Code = apiErr.ErrorCode()
			se.Message = apiErr.ErrorMessage()
		}
		return se
	}
	return fmt.Errorf("%s: %w", op, err)
}
