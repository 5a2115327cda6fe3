package errors

// ErrorCode classifies a request failure for retry decisions and reporting.
type ErrorCode string

// Error codes attached to Graph request failures.
const (
	CodeThrottled          ErrorCode = "THROTTLED"
	CodeTransient          ErrorCode = "TRANSIENT"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeDecode             ErrorCode = "DECODE_ERROR"
	CodeUnknown            ErrorCode = "UNKNOWN"
	CodeNoOnlineMeeting    ErrorCode = "NO_ONLINE_MEETING"
	CodeNoReports          ErrorCode = "NO_ATTENDANCE_REPORTS"
	CodeNoRecords          ErrorCode = "NO_ATTENDANCE_RECORDS"
	CodeChannelUnavailable ErrorCode = "CHANNEL_UNAVAILABLE"
)

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code        ErrorCode
	Retryable   bool
	Description string
}

// ErrorCodeRegistry maps error codes to their metadata. The request executor
// consults Retryable to decide whether a failed attempt is worth repeating.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeThrottled: {
		Code:        CodeThrottled,
		Retryable:   true,
		Description: "Graph rate limit exceeded (HTTP 429)",
	},
	CodeTransient: {
		Code:        CodeTransient,
		Retryable:   true,
		Description: "Transient server or network failure (HTTP 5xx, connection reset)",
	},
	CodeTimeout: {
		Code:        CodeTimeout,
		Retryable:   true,
		Description: "Request exceeded its deadline",
	},
	CodeNotFound: {
		Code:        CodeNotFound,
		Retryable:   false,
		Description: "Resource does not exist (HTTP 404)",
	},
	CodeUnauthorized: {
		Code:        CodeUnauthorized,
		Retryable:   false,
		Description: "Token missing, expired, or rejected (HTTP 401)",
	},
	CodeForbidden: {
		Code:        CodeForbidden,
		Retryable:   false,
		Description: "App registration lacks a required Graph permission (HTTP 403)",
	},
	CodeBadRequest: {
		Code:        CodeBadRequest,
		Retryable:   false,
		Description: "Malformed request or unsupported query (HTTP 400)",
	},
	CodeDecode: {
		Code:        CodeDecode,
		Retryable:   false,
		Description: "Response body could not be decoded as JSON",
	},
	CodeUnknown: {
		Code:        CodeUnknown,
		Retryable:   false,
		Description: "Unclassified failure",
	},
	CodeNoOnlineMeeting: {
		Code:        CodeNoOnlineMeeting,
		Retryable:   false,
		Description: "Candidate has no resolvable online-meeting id",
	},
	CodeNoReports: {
		Code:        CodeNoReports,
		Retryable:   false,
		Description: "Resolved meeting has no attendance reports",
	},
	CodeNoRecords: {
		Code:        CodeNoRecords,
		Retryable:   false,
		Description: "Attendance report expanded to an empty record set",
	},
	CodeChannelUnavailable: {
		Code:        CodeChannelUnavailable,
		Retryable:   false,
		Description: "A discovery channel could not run at all",
	},
}

// IsRetryable reports whether the code is registered as retryable.
// Unregistered codes are treated as non-retryable.
func IsRetryable(code ErrorCode) bool {
	info, ok := ErrorCodeRegistry[code]
	return ok && info.Retryable
}
