// This file contains call-record and session listing from the
// /communications surface.
package client

import (
	"context"
	"fmt"
	"net/url"
)

// CallRecord is the subset of the Graph callRecord resource the exporter needs.
type CallRecord struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"` // peerToPeer, groupCall
	StartDateTime string        `json:"startDateTime"`
	EndDateTime   string        `json:"endDateTime"`
	JoinWebURL    string        `json:"joinWebUrl,omitempty"`
	Organizer     *IdentitySet  `json:"organizer,omitempty"`
	Participants  []IdentitySet `json:"participants,omitempty"`
	Modalities    []string      `json:"modalities,omitempty"`
}

// CallSession is one signaling session within a call record.
type CallSession struct {
	ID            string     `json:"id"`
	StartDateTime string     `json:"startDateTime"`
	EndDateTime   string     `json:"endDateTime"`
	Caller        *CallParty `json:"caller,omitempty"`
	Callee        *CallParty `json:"callee,omitempty"`
}

// CallParty is one endpoint of a call session.
type CallParty struct {
	Identity *IdentitySet `json:"identity,omitempty"`
}

type callRecordPage struct {
	Value    []CallRecord `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

// ListCallRecords lists the tenant's call records. The endpoint does not
// support server-side date filtering, so callers filter client-side.
func (c *Client) ListCallRecords(ctx context.Context) ([]CallRecord, error) {
	var records []CallRecord
	next := ""
	for {
		var page callRecordPage
		if next == "" {
			if _, err := c.Get(ctx, "/communications/callRecords", nil, &page); err != nil {
				return nil, fmt.Errorf("listing call records: %w", err)
			}
		} else {
			if _, err := c.GetURL(ctx, next, &page); err != nil {
				return nil, fmt.Errorf("listing call records (continuation): %w", err)
			}
		}

		records = append(records, page.Value...)
		if page.NextLink == "" {
			break
		}
		next = page.NextLink
	}

	return records, nil
}

// ListCallRecordSessions fetches the per-call session list used to determine
// participant count and user involvement.
func (c *Client) ListCallRecordSessions(ctx context.Context, callID string) ([]CallSession, error) {
	var page struct {
		Value []CallSession `json:"value"`
	}
	path := "/communications/callRecords/" + url.PathEscape(callID) + "/sessions"
	if _, err := c.Get(ctx, path, nil, &page); err != nil {
		return nil, fmt.Errorf("listing sessions for call %s: %w", callID, err)
	}
	return page.Value, nil
}
