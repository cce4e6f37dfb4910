package core

// error_messages.go turns raw load failures into user-facing messages.
//
// # Error Codes Reference
//
// Every classified failure carries a code that users can quote to support.
// Rules are evaluated in order and the first match wins:
//
//	NET001  - Network unavailable: the request never got a response
//	          Action: Check your internet connection and reload
//	          Matches: HTTP status 0, *url.Error, net.Error, ECONNREFUSED/ECONNRESET
//
//	HTTP404 - Data not found: the dataset does not exist at the source
//	          Action: Verify the dataset location in the configuration
//	          Matches: HTTP 404, ErrDatasetNotFound
//
//	HTTP5XX - Server unavailable: the source is down or overloaded
//	          Action: Please try again later
//	          Matches: HTTP 500, 502, 503
//
//	HTTP000 - Other HTTP status: the default message with status code and text
//	          Action: Please try again or contact support
//	          Matches: any other *HTTPError
//
//	RUN001  - Runtime fault: the default message with the fault's own message
//	          Action: Please try again or contact support
//	          Matches: any other error with a non-empty message
//
//	ERR000  - Unexpected error: anything else (nil, non-error values)
//	          Action: Please try again or contact support
//
// # For Support Staff
//
// NET001 and HTTP5XX are transient. HTTP404 is almost always configuration
// (DATASET_URL / DATASET_PATH / DATASET_TABLE). For RUN001 and ERR000 check
// the application logs for the "dataset load failed" entry with the same
// load_id.

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// Kind is the category of a classified failure.
type Kind string

const (
	KindNetworkUnavailable Kind = "NetworkUnavailable"
	KindNotFound           Kind = "NotFound"
	KindServerUnavailable  Kind = "ServerUnavailable"
	KindOtherHTTPStatus    Kind = "OtherHttpStatus"
	KindRuntimeFault       Kind = "RuntimeFault"
	KindUnclassified       Kind = "Unclassified"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// Classification is the result of classifying a failure.
// It implements error so it can be returned and logged as-is.
type Classification struct {
	Kind Kind
	UserMessage

	// Cause is the original failure when it was an error.
	Cause error
}

func (c *Classification) Error() string {
	return c.Message
}

func (c *Classification) Unwrap() error {
	return c.Cause
}

// HTTPError is a response from the dataset source with a non-success status.
// StatusCode 0 means the request produced no response at all.
type HTTPError struct {
	StatusCode int
	StatusText string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("GET %s: no response", e.URL)
	}
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, e.StatusText)
}

// ErrDatasetNotFound is returned by sources that can tell the dataset does not
// exist (a missing file, an empty table). It classifies like HTTP 404.
var ErrDatasetNotFound = errors.New("dataset not found")

var (
	networkMessage = UserMessage{
		Message: "No internet connection",
		Action:  "Check your internet connection and reload",
		Code:    "NET001",
	}
	notFoundMessage = UserMessage{
		Message: "The requested data could not be found",
		Action:  "Verify the dataset location in the configuration",
		Code:    "HTTP404",
	}
	serverMessage = UserMessage{
		Message: "The server is currently unavailable. Please try again later",
		Action:  "Please try again later",
		Code:    "HTTP5XX",
	}
	defaultMessage = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// serverUnavailableStatuses are the statuses reported as a temporary outage.
var serverUnavailableStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
}

// Classify maps a raw failure to a user-facing message.
// defaultMsg is the context-specific message used by the interpolating rules
// (other HTTP statuses and runtime faults).
func Classify(failure any, defaultMsg string) *Classification {
	err, _ := failure.(error)

	var httpErr *HTTPError
	isHTTP := errors.As(err, &httpErr)

	switch {
	case isNetworkFailure(err, httpErr):
		return &Classification{Kind: KindNetworkUnavailable, UserMessage: networkMessage, Cause: err}

	case isHTTP && httpErr.StatusCode == http.StatusNotFound,
		errors.Is(err, ErrDatasetNotFound):
		return &Classification{Kind: KindNotFound, UserMessage: notFoundMessage, Cause: err}

	case isHTTP && serverUnavailableStatuses[httpErr.StatusCode]:
		return &Classification{Kind: KindServerUnavailable, UserMessage: serverMessage, Cause: err}

	case isHTTP:
		return &Classification{
			Kind: KindOtherHTTPStatus,
			UserMessage: UserMessage{
				Message: fmt.Sprintf("%s (HTTP %d %s)", defaultMsg, httpErr.StatusCode, httpErr.StatusText),
				Action:  defaultMessage.Action,
				Code:    "HTTP000",
			},
			Cause: err,
		}

	case err != nil && err.Error() != "":
		return &Classification{
			Kind: KindRuntimeFault,
			UserMessage: UserMessage{
				Message: fmt.Sprintf("%s: %s", defaultMsg, err.Error()),
				Action:  defaultMessage.Action,
				Code:    "RUN001",
			},
			Cause: err,
		}
	}

	return &Classification{Kind: KindUnclassified, UserMessage: defaultMessage, Cause: err}
}

// isNetworkFailure reports whether err means no response was received.
func isNetworkFailure(err error, httpErr *HTTPError) bool {
	if err == nil {
		return false
	}
	if httpErr != nil {
		return httpErr.StatusCode == 0
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "No internet connection (Code: NET001). Check your internet connection and reload"
func FormatUserError(c *Classification) string {
	if c == nil || c.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", c.Message, c.Code, c.Action)
}

// IsTransient reports whether retrying the load later may succeed.
func IsTransient(c *Classification) bool {
	return c != nil && (c.Kind == KindNetworkUnavailable || c.Kind == KindServerUnavailable)
}
