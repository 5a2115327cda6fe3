// This file contains chat-thread and chat-message listing.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ChatMessagePageSize bounds how many recent messages are inspected per chat.
const ChatMessagePageSize = 50

// Chat is the subset of the Graph chat resource the exporter needs.
type Chat struct {
	ID                  string `json:"id"`
	Topic               string `json:"topic"`
	ChatType            string `json:"chatType"` // oneOnOne, group, meeting
	LastUpdatedDateTime string `json:"lastUpdatedDateTime"`
}

// ChatMessage is the subset of the Graph chatMessage resource the exporter needs.
type ChatMessage struct {
	ID              string           `json:"id"`
	MessageType     string           `json:"messageType"` // message, systemEventMessage, ...
	CreatedDateTime string           `json:"createdDateTime"`
	Subject         string           `json:"subject"`
	Body            *ItemBody        `json:"body,omitempty"`
	EventDetail     *ChatEventDetail `json:"eventDetail,omitempty"`
	From            *IdentitySet     `json:"from,omitempty"`
}

// ItemBody is a Graph message body.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// ChatEventDetail discriminates system-generated chat events. The @odata.type
// value identifies call-started / call-ended events.
type ChatEventDetail struct {
	ODataType         string `json:"@odata.type"`
	CallEventType     string `json:"callEventType,omitempty"`
	CallDuration      string `json:"callDuration,omitempty"`
	CallParticipantsN int    `json:"callParticipantsCount,omitempty"`
}

// Call event @odata.type discriminators.
const (
	EventTypeCallStarted = "#microsoft.graph.callStartedEventMessageDetail"
	EventTypeCallEnded   = "#microsoft.graph.callEndedEventMessageDetail"
)

type chatPage struct {
	Value    []Chat `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// ListChats enumerates the user's chat threads updated within the date range.
func (c *Client) ListChats(ctx context.Context, userID string, start, end time.Time) ([]Chat, error) {
	filter := fmt.Sprintf("lastUpdatedDateTime ge %s and lastUpdatedDateTime le %s",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	query := url.Values{
		"$filter": {filter},
	}

	var chats []Chat
	next := ""
	for {
		var page chatPage
		if next == "" {
			path := "/users/" + url.PathEscape(userID) + "/chats"
			if _, err := c.Get(ctx, path, query, &page); err != nil {
				return nil, fmt.Errorf("listing chats: %w", err)
			}
		} else {
			if _, err := c.GetURL(ctx, next, &page); err != nil {
				return nil, fmt.Errorf("listing chats (continuation): %w", err)
			}
		}

		chats = append(chats, page.Value...)
		if page.NextLink == "" {
			break
		}
		next = page.NextLink
	}

	return chats, nil
}

// ListChatMessages returns the most recent messages of a chat, bounded to
// ChatMessagePageSize.
func (c *Client) ListChatMessages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	query := url.Values{
		"$top":     {strconv.Itoa(ChatMessagePageSize)},
		"$orderby": {"createdDateTime desc"},
	}

	var page struct {
		Value []ChatMessage `json:"value"`
	}
	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	if _, err := c.Get(ctx, path, query, &page); err != nil {
		return nil, fmt.Errorf("listing messages for chat %s: %w", chatID, err)
	}

	return page.Value, nil
}
