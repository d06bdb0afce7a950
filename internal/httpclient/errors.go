package httpclient

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMissingStatusCode is returned when a response carries no usable status code.
	ErrMissingStatusCode = errors.New("unknown error: missing status code on response")
	// ErrMissingLocation is returned when a redirect response has no Location header.
	ErrMissingLocation = errors.New("redirect response without Location header")
	// ErrTooManyRedirects is returned once the hop limit is exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrUnsupportedScheme is returned for URLs that are neither http nor https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrStatusCodeRequired is returned by NewHTTPError for a zero status code.
	ErrStatusCodeRequired = errors.New("statusCode is mandatory")
)

// HTTPError is returned for responses outside the 2xx range.
type HTTPError struct {
	StatusCode int
	Message    string
}

// NewHTTPError builds an HTTPError. An empty message defaults to the
// decimal status code.
func NewHTTPError(message string, statusCode int) (*HTTPError, error) {
	if statusCode == 0 {
		return nil, ErrStatusCodeRequired
	}
	if message == "" {
		message = strconv.Itoa(statusCode)
	}
	return &HTTPError{StatusCode: statusCode, Message: message}, nil
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the status code of an *HTTPError anywhere in err's
// chain, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
