package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylanstetts/user-meeting-attendance/pkg/attendance"
)

func TestAttendanceFileName(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	name := AttendanceFileName("alice@example.com", start, end)
	assert.Equal(t, "attendance_alice_example.com_2026-06-01_2026-06-30.csv", name)

	name = FailureFileName("alice@example.com", start, end)
	assert.Equal(t, "attendance_failures_alice_example.com_2026-06-01_2026-06-30.csv", name)
}

func TestWriteAttendanceCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "attendance.csv")

	join := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	rows := []attendance.Row{
		{
			MeetingID:       "om-1",
			Subject:         "Design, review", // embedded comma must survive
			SourceChannel:   attendance.ChannelCalendar,
			MeetingType:     attendance.TypeScheduled,
			Category:        attendance.CategoryRegular,
			ReportID:        "rep-1",
			AttendeeID:      "att-1",
			AttendeeName:    "Alice",
			AttendeeEmail:   "alice@example.com",
			Role:            attendance.RoleOrganizer,
			JoinTime:        join,
			LeaveTime:       join.Add(30 * time.Minute),
			DurationSeconds: 1800,
		},
	}

	require.NoError(t, WriteAttendanceCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, attendanceHeader, records[0])

	got := records[1]
	assert.Equal(t, "om-1", got[0])
	assert.Equal(t, "Design, review", got[1])
	assert.Equal(t, "Calendar", got[2])
	assert.Equal(t, "2026-06-10T10:00:00Z", got[12])
	assert.Equal(t, "1800", got[14])
}

func TestWriteAttendanceCSV_EmptyStillWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	require.NoError(t, WriteAttendanceCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "meetingId,subject")
}

func TestWriteFailuresCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.csv")
	failures := []attendance.FailureEntry{
		{Subject: "Orphan", SourceChannel: attendance.ChannelCalendar, ErrorReason: "no attendance reports found"},
	}
	require.NoError(t, WriteFailuresCSV(path, failures))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Orphan", records[1][0])
	assert.Equal(t, "", records[1][1]) // zero time renders empty
}

func TestDebugDumper_SequencesFiles(t *testing.T) {
	dir := t.TempDir()
	d := NewDebugDumper(dir, "run-1")

	p1, err := d.Dump([]byte(`{"a":1}`))
	require.NoError(t, err)
	p2, err := d.Dump([]byte(`{"b":2}`))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "debug", "report_run-1_1.json"), p1)
	assert.Equal(t, filepath.Join(dir, "debug", "report_run-1_2.json"), p2)

	data, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(data))
}
