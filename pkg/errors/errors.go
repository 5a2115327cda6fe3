// Package errors provides common domain error types for the attendance exporter.
//
// This package defines sentinel errors for conditions the pipeline cares about,
// such as "meeting not resolvable" or "throttled by the API". Using typed errors
// enables consistent error handling with errors.Is() checks across the client,
// the source adapters, and the orchestrator.
//
// Usage:
//
//	import umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
//
//	// Return a domain error
//	return nil, umerrors.ErrNoOnlineMeeting
//
//	// Check for domain errors
//	if umerrors.IsThrottled(err) {
//	    // back off before retrying
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for pipeline conditions.
var (
	// ErrNotFound indicates the requested Graph resource was not found (404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the request lacks valid authentication (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the app registration lacks a required
	// permission, e.g. CallRecords.Read.All (403).
	ErrForbidden = errors.New("forbidden")

	// ErrThrottled indicates the API rejected the request with a rate-limit
	// response (429).
	ErrThrottled = errors.New("throttled")

	// ErrNoOnlineMeeting indicates a candidate could not be resolved to a
	// canonical online-meeting id.
	ErrNoOnlineMeeting = errors.New("no online meeting id found")

	// ErrNoAttendanceReports indicates a resolved meeting has no attendance
	// reports available.
	ErrNoAttendanceReports = errors.New("no attendance reports found")

	// ErrNoAttendanceRecords indicates an attendance report expanded to an
	// empty record set.
	ErrNoAttendanceRecords = errors.New("no attendance records")

	// ErrChannelUnavailable indicates a whole discovery channel cannot run
	// (missing permission, unsupported API surface).
	ErrChannelUnavailable = errors.New("discovery channel unavailable")

	// ErrValidation indicates invalid input or configuration.
	ErrValidation = errors.New("validation error")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether any error in err's chain is ErrForbidden.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsThrottled reports whether any error in err's chain is ErrThrottled.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsNoOnlineMeeting reports whether any error in err's chain is ErrNoOnlineMeeting.
func IsNoOnlineMeeting(err error) bool {
	return errors.Is(err, ErrNoOnlineMeeting)
}

// IsNoAttendanceReports reports whether any error in err's chain is ErrNoAttendanceReports.
func IsNoAttendanceReports(err error) bool {
	return errors.Is(err, ErrNoAttendanceReports)
}

// IsNoAttendanceRecords reports whether any error in err's chain is ErrNoAttendanceRecords.
func IsNoAttendanceRecords(err error) bool {
	return errors.Is(err, ErrNoAttendanceRecords)
}

// IsChannelUnavailable reports whether any error in err's chain is ErrChannelUnavailable.
func IsChannelUnavailable(err error) bool {
	return errors.Is(err, ErrChannelUnavailable)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
