package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voidchat/relay/internal/types"
)

func TestStartTyping(t *testing.T) {
	t.Run("adds name to typing set", func(t *testing.T) {
		p := NewPresenceRegistry()

		names := p.StartTyping("general", "alice")
		assert.Equal(t, []string{"alice"}, names, "expected typing set to contain alice")
	})

	t.Run("is idempotent", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.StartTyping("general", "alice")
		names := p.StartTyping("general", "alice")
		assert.Equal(t, []string{"alice"}, names, "expected one entry after repeated typing-start")
	})

	t.Run("returns sorted names", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.StartTyping("general", "carol")
		p.StartTyping("general", "alice")
		names := p.StartTyping("general", "bob")
		assert.Equal(t, []string{"alice", "bob", "carol"}, names, "expected names sorted")
	})
}

func TestStopTyping(t *testing.T) {
	t.Run("removes name from typing set", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.StartTyping("general", "alice")
		p.StartTyping("general", "bob")
		names := p.StopTyping("general", "alice")
		assert.Equal(t, []string{"bob"}, names, "expected alice removed from typing set")
	})

	t.Run("absent name is a no-op", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.StartTyping("general", "bob")
		names := p.StopTyping("general", "alice")
		assert.Equal(t, []string{"bob"}, names, "expected typing set unchanged")
	})

	t.Run("unknown channel is treated as empty", func(t *testing.T) {
		p := NewPresenceRegistry()

		names := p.StopTyping("no-such-channel", "alice")
		assert.Empty(t, names, "expected empty typing set for unknown channel")
	})
}

func TestJoinVoice(t *testing.T) {
	t.Run("first join returns empty roster", func(t *testing.T) {
		p := NewPresenceRegistry()

		prev, others := p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserId: "u1", UserName: "alice"})
		assert.Empty(t, prev, "expected no prior channel")
		assert.Empty(t, others, "expected roster excluding self to be empty")

		roster := p.Roster("voice-1")
		assert.Len(t, roster, 1, "expected one participant in roster")
		assert.Equal(t, "s1", roster[0].SessionId, "expected session in roster")
	})

	t.Run("roster preserves join order and excludes self", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})
		p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s2", UserName: "bob"})
		_, others := p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s3", UserName: "carol"})

		assert.Len(t, others, 2, "expected two prior participants")
		assert.Equal(t, "s1", others[0].SessionId, "expected join order preserved")
		assert.Equal(t, "s2", others[1].SessionId, "expected join order preserved")
	})

	t.Run("joining a second channel leaves the first", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.JoinVoice("voice-2", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})
		prev, _ := p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})

		assert.Equal(t, "voice-2", prev, "expected prior channel reported")
		assert.Empty(t, p.Roster("voice-2"), "expected session removed from prior roster")
		assert.Len(t, p.Roster("voice-1"), 1, "expected session in new roster")

		channelId, ok := p.VoiceChannel("s1")
		assert.True(t, ok, "expected session to have a voice channel")
		assert.Equal(t, "voice-1", channelId, "expected at most one membership")
	})

	t.Run("rejoining the same channel does not duplicate", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})
		prev, _ := p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})

		assert.Empty(t, prev, "expected no prior channel on rejoin")
		assert.Len(t, p.Roster("voice-1"), 1, "expected single roster entry")
	})
}

func TestLeaveVoice(t *testing.T) {
	t.Run("removes voice entry", func(t *testing.T) {
		p := NewPresenceRegistry()

		p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})
		channelId, ok := p.LeaveVoice("s1")

		assert.True(t, ok, "expected leave to report membership")
		assert.Equal(t, "voice-1", channelId, "expected affected channel")
		assert.Empty(t, p.Roster("voice-1"), "expected empty roster after leave")
	})

	t.Run("no-op without membership", func(t *testing.T) {
		p := NewPresenceRegistry()

		channelId, ok := p.LeaveVoice("s1")
		assert.False(t, ok, "expected no membership")
		assert.Empty(t, channelId, "expected no affected channel")
	})
}

func TestDropSession(t *testing.T) {
	p := NewPresenceRegistry()

	p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s1", UserName: "alice"})
	p.JoinVoice("voice-1", types.VoiceParticipant{SessionId: "s2", UserName: "bob"})

	channelId, ok := p.DropSession("s1")
	assert.True(t, ok, "expected drop to report membership")
	assert.Equal(t, "voice-1", channelId, "expected affected channel")

	roster := p.Roster("voice-1")
	assert.Len(t, roster, 1, "expected remaining participant")
	assert.Equal(t, "s2", roster[0].SessionId, "expected other session to remain")
}
