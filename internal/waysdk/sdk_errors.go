package waysdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	// sdk common
	ErrNoServerURL = errors.New("sdk: server url missing")
	ErrNoAuthToken = errors.New("sdk: auth token missing")
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Record errors
	CodeDuplicateKey   = "E_DUPLICATE_KEY"   // a record with this id already exists
	CodeRecordNotFound = "E_RECORD_NOT_FOUND" // the record could not be found
	CodeValidation     = "E_VALIDATION"      // the record payload failed server-side validation
)

// APIError represents Wheelway API errors
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// IsDuplicateKey reports whether err is the remote's duplicate-key failure.
// The sync adapter special-cases this into an idempotent update retry.
func IsDuplicateKey(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeDuplicateKey || apiErr.Status == http.StatusConflict
}

// IsRetryable reports whether err is worth retrying on a later sync run.
// Transport-level failures (connection refused, timeouts, context deadline)
// never produce an APIError and are always retryable; API errors are retryable
// only for rate limiting and 5xx-class responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// no response from the server at all
		return !errors.Is(err, context.Canceled)
	}

	switch apiErr.Code {
	case CodeRateLimited, CodeInternalError:
		return true
	}

	return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if resp.IsErrorState() {
		if apiErr, ok := resp.ErrorResult().(*APIError); ok {
			apiErr.Status = resp.StatusCode
			return fmt.Errorf("%s %w", operation, apiErr)
		}

		// error body did not parse, classify by status alone
		return fmt.Errorf("%s %w", operation, &APIError{
			Code:    CodeUnknownError,
			Message: resp.Status,
			Status:  resp.StatusCode,
		})
	}

	return nil
}
