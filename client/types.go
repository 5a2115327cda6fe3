package client

import (
	"strings"
	"time"
)

// DateTimeTimeZone is Graph's split representation of a timestamp.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// graphTimeLayouts covers the timestamp shapes Graph emits: RFC3339 with
// fractional seconds, and zone-less local times paired with a timeZone field.
var graphTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// ParseGraphTime parses a Graph timestamp string. Zone-less values are
// interpreted as UTC, which is what the exporter requests via
// Prefer: outlook.timezone="UTC".
func ParseGraphTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range graphTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Time resolves the pair into a time.Time, treating zone-less values as UTC.
func (d DateTimeTimeZone) Time() (time.Time, bool) {
	return ParseGraphTime(d.DateTime)
}

// EmailAddress is Graph's address + display-name pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Identity is a Graph identity reference.
type Identity struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// IdentitySet groups the user/device/application identities Graph attaches
// to activity records.
type IdentitySet struct {
	User *Identity `json:"user,omitempty"`
}
