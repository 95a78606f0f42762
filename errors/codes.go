package errors

// ErrorCode identifies a class of application error
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_ACCESS_DENIED    ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1005
	ErrorCode_VALIDATION       ErrorCode = 1006

	// Meeting lifecycle
	ErrorCode_MEETING_NOT_FOUND   ErrorCode = 2000
	ErrorCode_MEETING_INIT_FAILED ErrorCode = 2001
	ErrorCode_MEETING_NOT_ACTIVE  ErrorCode = 2002

	// Transcript source
	ErrorCode_SOURCE_NOT_AVAILABLE ErrorCode = 3000
	ErrorCode_SOURCE_TRANSIENT     ErrorCode = 3001
	ErrorCode_SOURCE_RATE_LIMITED  ErrorCode = 3002
	ErrorCode_SUBSCRIPTION_FAILED  ErrorCode = 3003

	// Summarization
	ErrorCode_SUMMARIZATION_FAILED ErrorCode = 4000
	ErrorCode_SUMMARY_PARSE_FAILED ErrorCode = 4001

	// Storage
	ErrorCode_STORAGE_UNAVAILABLE ErrorCode = 5000
	ErrorCode_SUMMARY_NOT_FOUND   ErrorCode = 5001
	ErrorCode_SUMMARY_DEGRADED    ErrorCode = 5002

	// Integration
	ErrorCode_PLATFORM_API_FAILED ErrorCode = 6000
	ErrorCode_INVALID_PAYLOAD     ErrorCode = 6001
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:              "OK",
	ErrorCode_INTERNAL:             "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:     "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:            "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:       "ALREADY_EXISTS",
	ErrorCode_ACCESS_DENIED:        "ACCESS_DENIED",
	ErrorCode_UNAUTHENTICATED:      "UNAUTHENTICATED",
	ErrorCode_VALIDATION:           "VALIDATION",
	ErrorCode_MEETING_NOT_FOUND:    "MEETING_NOT_FOUND",
	ErrorCode_MEETING_INIT_FAILED:  "MEETING_INIT_FAILED",
	ErrorCode_MEETING_NOT_ACTIVE:   "MEETING_NOT_ACTIVE",
	ErrorCode_SOURCE_NOT_AVAILABLE: "SOURCE_NOT_AVAILABLE",
	ErrorCode_SOURCE_TRANSIENT:     "SOURCE_TRANSIENT",
	ErrorCode_SOURCE_RATE_LIMITED:  "SOURCE_RATE_LIMITED",
	ErrorCode_SUBSCRIPTION_FAILED:  "SUBSCRIPTION_FAILED",
	ErrorCode_SUMMARIZATION_FAILED: "SUMMARIZATION_FAILED",
	ErrorCode_SUMMARY_PARSE_FAILED: "SUMMARY_PARSE_FAILED",
	ErrorCode_STORAGE_UNAVAILABLE:  "STORAGE_UNAVAILABLE",
	ErrorCode_SUMMARY_NOT_FOUND:    "SUMMARY_NOT_FOUND",
	ErrorCode_SUMMARY_DEGRADED:     "SUMMARY_DEGRADED",
	ErrorCode_PLATFORM_API_FAILED:  "PLATFORM_API_FAILED",
	ErrorCode_INVALID_PAYLOAD:      "INVALID_PAYLOAD",
}

// String returns the symbolic name of the error code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
