package server

import (
	"errors"
	"strings"
	"time"

	"github.com/voidchat/relay/internal/types"
)

var errInvalidEnvelope = errors.New("envelope must contain exactly one event")

// ClientMessage is the inbound wire envelope. Exactly one event field is set;
// anything else is rejected at the transport boundary before it reaches the
// hub.
type ClientMessage struct {
	Subscribe   *Subscribe   `json:"subscribe,omitempty"`
	TypingStart *TypingEvent `json:"typing-start,omitempty"`
	TypingStop  *TypingEvent `json:"typing-stop,omitempty"`
	JoinVoice   *JoinVoice   `json:"join-voice,omitempty"`
	LeaveVoice  *LeaveVoice  `json:"leave-voice,omitempty"`
	SendMessage *SendMessage `json:"send-message,omitempty"`

	// disconnect is synthesized by the session teardown path; it is never
	// parsed off the wire.
	disconnect bool
	client     *Client
}

type Subscribe struct {
	ChannelId string `json:"channel_id"`
}

type TypingEvent struct {
	ChannelId string `json:"channel_id"`
	UserName  string `json:"user_name"`
}

type JoinVoice struct {
	ChannelId string `json:"channel_id"`
	UserId    string `json:"user_id"`
	UserName  string `json:"user_name"`
}

type LeaveVoice struct {
	ChannelId string `json:"channel_id"`
}

type SendMessage struct {
	ChannelId string `json:"channel_id"`
	UserId    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Content   string `json:"content"`
}

// validate enforces the closed-variant rule and minimal payload shape.
func (m *ClientMessage) validate() error {
	var set int
	var channelId string

	if m.Subscribe != nil {
		set++
		channelId = m.Subscribe.ChannelId
	}
	if m.TypingStart != nil {
		set++
		channelId = m.TypingStart.ChannelId
	}
	if m.TypingStop != nil {
		set++
		channelId = m.TypingStop.ChannelId
	}
	if m.JoinVoice != nil {
		set++
		channelId = m.JoinVoice.ChannelId
	}
	if m.LeaveVoice != nil {
		set++
		channelId = m.LeaveVoice.ChannelId
	}
	if m.SendMessage != nil {
		set++
		channelId = m.SendMessage.ChannelId
	}

	if set != 1 {
		return errInvalidEnvelope
	}
	if strings.TrimSpace(channelId) == "" {
		return errors.New("channel_id is required")
	}

	return nil
}

// ServerMessage is the outbound wire envelope; exactly one field is set.
type ServerMessage struct {
	NewMessage      *types.Message  `json:"new-message,omitempty"`
	TypingUpdate    *TypingUpdate   `json:"typing-update,omitempty"`
	UserJoinedVoice *VoiceJoin      `json:"user-joined-voice,omitempty"`
	UserLeftVoice   *VoiceDeparture `json:"user-left-voice,omitempty"`
	VoiceUsersList  *VoiceUsersList `json:"voice-users-list,omitempty"`
}

type TypingUpdate struct {
	ChannelId string   `json:"channel_id"`
	Users     []string `json:"users"`
}

type VoiceJoin struct {
	ChannelId   string                 `json:"channel_id"`
	Participant types.VoiceParticipant `json:"participant"`
}

type VoiceDeparture struct {
	ChannelId string `json:"channel_id"`
	SessionId string `json:"session_id"`
}

type VoiceUsersList struct {
	ChannelId    string                   `json:"channel_id"`
	Participants []types.VoiceParticipant `json:"participants"`
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
