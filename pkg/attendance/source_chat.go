package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/dylanstetts/user-meeting-attendance/client"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
)

// chatCallPhrases are body fragments that mark a plain message as call
// activity when no structured event detail is attached.
var chatCallPhrases = []string{
	"started a call",
	"joined the call",
	"call ended",
	"meeting started",
}

// ChatSource discovers calls from the user's chat history. Structured
// call events (callStarted/callEnded system messages) become ChatCall
// candidates; phrase-matched plain messages become ChatActivity
// candidates. Only the most recent page of messages per chat is
// scanned, so long-running chats can miss older calls.
type ChatSource struct {
	api ChatAPI
	log logging.Logger
}

// NewChatSource creates a ChatSource.
func NewChatSource(api ChatAPI, log logging.Logger) *ChatSource {
	if log == nil {
		log = logging.NopLogger()
	}
	return &ChatSource{api: api, log: log}
}

func (s *ChatSource) Channel() SourceChannel { return ChannelChatCall }

func (s *ChatSource) Discover(ctx context.Context, userID string, start, end time.Time) ([]*MeetingCandidate, error) {
	chats, err := s.api.ListChats(ctx, userID, start, end)
	if err != nil {
		return nil, channelError(err)
	}

	var out []*MeetingCandidate
	for _, chat := range chats {
		msgs, err := s.api.ListChatMessages(ctx, chat.ID)
		if err != nil {
			// One unreadable chat should not lose the rest.
			s.log.Warn("skipping unreadable chat",
				logging.F("chat_id", chat.ID), logging.Err(err))
			continue
		}

		for _, msg := range msgs {
			cand := s.candidateFromMessage(chat, msg, start, end)
			if cand != nil {
				out = append(out, cand)
			}
		}
	}

	s.log.Debug("chat discovery complete",
		logging.F("chats", len(chats)),
		logging.F("candidates", len(out)))
	return out, nil
}

func (s *ChatSource) candidateFromMessage(chat client.Chat, msg client.ChatMessage, start, end time.Time) *MeetingCandidate {
	created, ok := client.ParseGraphTime(msg.CreatedDateTime)
	if !ok || created.Before(start) || created.After(end) {
		return nil
	}

	channel, attendees := s.matchCall(msg)
	if channel == "" {
		return nil
	}

	subject := chat.Topic
	if subject == "" {
		subject = "Teams call"
	}
	callType := "Group Call"
	if chat.ChatType == "oneOnOne" {
		callType = "Direct Call"
		if attendees == 0 {
			attendees = 2
		}
	}

	return &MeetingCandidate{
		ID:            chat.ID + ":" + msg.ID,
		Subject:       subject,
		StartTime:     created,
		SourceChannel: channel,
		AttendeeCount: attendees,
		CallType:      callType,
		UserInvolved:  true,
	}
}

// matchCall reports which chat channel a message belongs to, or "" when
// the message is not call activity. Structured event detail wins over
// phrase matching.
func (s *ChatSource) matchCall(msg client.ChatMessage) (SourceChannel, int) {
	if msg.EventDetail != nil {
		switch msg.EventDetail.ODataType {
		case client.EventTypeCallStarted, client.EventTypeCallEnded:
			return ChannelChatCall, msg.EventDetail.CallParticipantsN
		}
		return "", 0
	}

	if msg.Body == nil {
		return "", 0
	}
	body := strings.ToLower(msg.Body.Content)
	for _, phrase := range chatCallPhrases {
		if strings.Contains(body, phrase) {
			return ChannelChatActivity, 0
		}
	}
	return "", 0
}
