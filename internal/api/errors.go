package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnavailable covers transport failures, timeouts, non-200 replies and an open breaker.
	ErrUnavailable = errors.New("api unavailable")
	// ErrMalformedResponse is returned when a reply does not match the expected shape.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrUnauthenticated matches server errors caused by a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	// ErrOrderNotCreated is returned when createOrder answers without an order id.
	ErrOrderNotCreated = errors.New("order not created")
)

// ResponseError is an error reported by the GraphQL server in the errors array.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return "api error: " + e.Message
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrUnauthenticated && isAuthMessage(e.Message)
}

var authMarkers = []string{
	"token is expired",
	"token has expired",
	"token expired",
	"token is malformed",
	"signature is invalid",
	"invalid token",
	"unauthenticated",
	"unauthorized",
}

func isAuthMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsNetworkError reports whether err belongs to the generic network failure category.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrMalformedResponse)
}

// classify maps errors from the graphql transport onto the package taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "graphql: server returned a non-200 status code"):
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	case strings.HasPrefix(msg, "decoding response"):
		return fmt.Errorf("%w: %s", ErrMalformedResponse, msg)
	case strings.HasPrefix(msg, "graphql: "):
		return &ResponseError{Message: strings.TrimPrefix(msg, "graphql: ")}
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
