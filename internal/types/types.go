package types

import (
	"time"
)

type Server struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
)

type Channel struct {
	Id       string      `json:"id"`
	ServerId string      `json:"server_id"`
	Name     string      `json:"name"`
	Type     ChannelType `json:"type"`
}

type Message struct {
	Id        string    `json:"id"`
	ChannelId string    `json:"channel_id"`
	UserId    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// VoiceParticipant is one connection's membership in a voice channel.
// SessionId identifies the connection, not the user: the same user
// reconnecting gets a new session id.
type VoiceParticipant struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	UserName  string `json:"user_name"`
}
