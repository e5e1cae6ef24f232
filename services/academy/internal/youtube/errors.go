package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

// ExternalAPIError reports a non-success answer from the playlist metadata service.
type ExternalAPIError struct {
	Status  int
	Reason  string
	Message string
	Err     error
}

func (e *ExternalAPIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube: status %d (%s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube: status %d: %s", e.Status, e.Message)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// InvalidCredentialsError is the ExternalAPIError raised when the API key is rejected.
type InvalidCredentialsError struct {
	ExternalAPIError
}

func (e *InvalidCredentialsError) Error() string {
	return "youtube: invalid API key: " + e.Message
}

// As lets errors.As(err, **ExternalAPIError) match an InvalidCredentialsError.
func (e *InvalidCredentialsError) As(target any) bool {
	if t, ok := target.(**ExternalAPIError); ok {
		*t = &e.ExternalAPIError
		return true
	}
	return false
}

func (e *InvalidCredentialsError) Unwrap() error { return e.Err }

// IsInvalidCredentials reports whether err carries an InvalidCredentialsError.
func IsInvalidCredentials(err error) bool {
	var ic *InvalidCredentialsError
	return errors.As(err, &ic)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ExternalAPIError{Status: http.StatusServiceUnavailable, Reason: "circuitOpen", Message: err.Error(), Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &ExternalAPIError{Reason: "transport", Message: err.Error(), Err: err}
	}
	apiErr := ExternalAPIError{Status: gerr.Code, Message: gerr.Message, Err: err}
	if len(gerr.Errors) > 0 {
		apiErr.Reason = gerr.Errors[0].Reason
		if apiErr.Message == "" {
			apiErr.Message = gerr.Errors[0].Message
		}
	}
	if invalidKey(gerr) {
		return &InvalidCredentialsError{ExternalAPIError: apiErr}
	}
	return &apiErr
}

func invalidKey(gerr *googleapi.Error) bool {
	if strings.Contains(gerr.Message, "API key not valid") {
		return true
	}
	for _, item := range gerr.Errors {
		if item.Reason == "keyInvalid" || strings.Contains(item.Message, "API key not valid") {
			return true
		}
	}
	return false
}
