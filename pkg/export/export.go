// Package export writes pipeline results to disk as CSV, plus optional
// raw report payloads when debugging.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dylanstetts/user-meeting-attendance/pkg/attendance"
)

var attendanceHeader = []string{
	"meetingId", "subject", "sourceChannel", "meetingType", "category",
	"meetingStart", "meetingEnd", "reportId",
	"attendeeId", "attendeeName", "attendeeEmail", "role",
	"joinTime", "leaveTime", "durationSeconds",
}

var failureHeader = []string{
	"subject", "startTime", "sourceChannel", "errorReason",
}

// AttendanceFileName builds the attendance CSV name for a run:
// attendance_<user>_<start>_<end>.csv with the principal name made
// filesystem-safe.
func AttendanceFileName(userPrincipalName string, start, end time.Time) string {
	return fmt.Sprintf("attendance_%s_%s_%s.csv",
		safeName(userPrincipalName),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"))
}

// FailureFileName builds the failure CSV name for a run.
func FailureFileName(userPrincipalName string, start, end time.Time) string {
	return fmt.Sprintf("attendance_failures_%s_%s_%s.csv",
		safeName(userPrincipalName),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"))
}

// WriteAttendanceCSV writes rows to path, creating parent directories
// as needed. The header is always written, so an empty run still
// produces a well-formed file.
func WriteAttendanceCSV(path string, rows []attendance.Row) error {
	return writeCSV(path, attendanceHeader, func(w *csv.Writer) error {
		for _, row := range rows {
			record := []string{
				row.MeetingID,
				row.Subject,
				string(row.SourceChannel),
				string(row.MeetingType),
				row.Category,
				formatTime(row.MeetingStart),
				formatTime(row.MeetingEnd),
				row.ReportID,
				row.AttendeeID,
				row.AttendeeName,
				row.AttendeeEmail,
				string(row.Role),
				formatTime(row.JoinTime),
				formatTime(row.LeaveTime),
				strconv.Itoa(row.DurationSeconds),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteFailuresCSV writes failure entries to path.
func WriteFailuresCSV(path string, failures []attendance.FailureEntry) error {
	return writeCSV(path, failureHeader, func(w *csv.Writer) error {
		for _, f := range failures {
			record := []string{
				f.Subject,
				formatTime(f.StartTime),
				string(f.SourceChannel),
				f.ErrorReason,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, body func(*csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
