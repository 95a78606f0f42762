package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// HasCode reports whether err is an AppError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

// ErrValidation rejects a configuration or request value outside its allowed range.
// The whole update is refused; nothing is partially applied.
func ErrValidation(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VALIDATION,
		Message:  "Validation failed",
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Meeting Lifecycle Errors

func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_MEETING_NOT_FOUND,
		Message:  "Meeting not found",
	}.WithDetail("meeting_id", meetingID)
}

// ErrMeetingInitFailed is the only lifecycle error allowed to propagate out of
// the controller's start transition.
func ErrMeetingInitFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_MEETING_INIT_FAILED,
		Message:  "Failed to initialize meeting",
	}.WithDetail("meeting_id", meetingID)
}

func ErrMeetingNotActive(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_MEETING_NOT_ACTIVE,
		Message:  "Meeting is not active",
	}.WithDetail("meeting_id", meetingID)
}

// Transcript Source Errors

// ErrSourceNotAvailable signals "no transcript yet", not a failure. The
// polling loop treats it as an empty cycle.
func ErrSourceNotAvailable(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SOURCE_NOT_AVAILABLE,
		Message:  "Transcript not available yet",
	}.WithDetail("meeting_id", meetingID)
}

func ErrSourceTransient(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_SOURCE_TRANSIENT,
		Message:  "Transcript provider temporarily unavailable",
	}
}

func ErrSourceRateLimited(retryAfter time.Duration) AppError {
	return AppError{
		HTTPCode: http.StatusTooManyRequests,
		Code:     ErrorCode_SOURCE_RATE_LIMITED,
		Message:  "Transcript provider rate limit hit",
	}.WithDetail("retry_after", retryAfter.String())
}

func ErrSubscriptionFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_SUBSCRIPTION_FAILED,
		Message:  "Failed to create transcript subscription",
	}.WithDetail("meeting_id", meetingID)
}

// Summarization Errors

func ErrSummarizationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SUMMARIZATION_FAILED,
		Message:  "Failed to generate summary",
	}
}

// ErrSummaryParseFailed is distinct from a model-call failure: the model
// answered but no valid JSON object could be extracted.
func ErrSummaryParseFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SUMMARY_PARSE_FAILED,
		Message:  "Model response did not contain a valid summary",
	}
}

// Storage Errors

func ErrStorageUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_STORAGE_UNAVAILABLE,
		Message:  "Summary storage temporarily unavailable",
	}
}

func ErrSummaryNotFound(summaryID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SUMMARY_NOT_FOUND,
		Message:  "Summary not found",
	}.WithDetail("summary_id", summaryID)
}

// ErrAccessDenied is a distinct, user-facing denial. It is never replaced by
// an empty result so callers can tell "no data" from "not allowed".
func ErrAccessDenied(requesterID string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_ACCESS_DENIED,
		Message:  "Requester is not a participant of this summary",
	}.WithDetail("requester_id", requesterID)
}

// Integration Errors

func ErrPlatformAPIFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_PLATFORM_API_FAILED,
		Message:  fmt.Sprintf("Platform API call failed: %s", operation),
	}
}
