package server

import (
	"slices"

	"github.com/voidchat/relay/internal/types"
)

// PresenceRegistry holds all ephemeral per-channel state: typing name-sets
// and ordered voice rosters. It performs no I/O and is owned exclusively by
// the hub goroutine, so it needs no locking. Unknown channel ids are treated
// as empty state, never as errors.
type PresenceRegistry struct {
	typing map[string]map[string]struct{}
	voice  map[string][]types.VoiceParticipant
	// voiceChannel maps a session id to the single voice channel it is in.
	voiceChannel map[string]string
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		typing:       make(map[string]map[string]struct{}),
		voice:        make(map[string][]types.VoiceParticipant),
		voiceChannel: make(map[string]string),
	}
}

// StartTyping adds userName to the channel's typing set and returns the
// updated set. Adding a name twice is idempotent.
func (p *PresenceRegistry) StartTyping(channelId, userName string) []string {
	set, ok := p.typing[channelId]
	if !ok {
		set = make(map[string]struct{})
		p.typing[channelId] = set
	}
	set[userName] = struct{}{}

	return p.typingNames(channelId)
}

// StopTyping removes userName from the channel's typing set and returns the
// updated set. Removing an absent name is a no-op.
func (p *PresenceRegistry) StopTyping(channelId, userName string) []string {
	if set, ok := p.typing[channelId]; ok {
		delete(set, userName)
		if len(set) == 0 {
			delete(p.typing, channelId)
		}
	}

	return p.typingNames(channelId)
}

// typingNames returns the channel's typing set sorted, so identical state
// always serializes identically.
func (p *PresenceRegistry) typingNames(channelId string) []string {
	names := make([]string, 0, len(p.typing[channelId]))
	for name := range p.typing[channelId] {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// JoinVoice appends the participant to the channel's roster. A session holds
// at most one voice membership: any prior entry is removed first and its
// channel id returned so the caller can broadcast the departure there.
// The returned roster excludes the joining session.
func (p *PresenceRegistry) JoinVoice(channelId string, participant types.VoiceParticipant) (prevChannelId string, others []types.VoiceParticipant) {
	if prev, ok := p.voiceChannel[participant.SessionId]; ok && prev != channelId {
		p.removeFromRoster(prev, participant.SessionId)
		prevChannelId = prev
	}

	if p.voiceChannel[participant.SessionId] != channelId {
		p.voice[channelId] = append(p.voice[channelId], participant)
		p.voiceChannel[participant.SessionId] = channelId
	}

	for _, part := range p.voice[channelId] {
		if part.SessionId != participant.SessionId {
			others = append(others, part)
		}
	}

	return prevChannelId, others
}

// LeaveVoice removes the session's voice entry, if any, and reports the
// channel it was removed from.
func (p *PresenceRegistry) LeaveVoice(sessionId string) (channelId string, ok bool) {
	channelId, ok = p.voiceChannel[sessionId]
	if !ok {
		return "", false
	}

	p.removeFromRoster(channelId, sessionId)
	return channelId, true
}

// DropSession clears all voice state for a disconnecting session.
func (p *PresenceRegistry) DropSession(sessionId string) (channelId string, ok bool) {
	return p.LeaveVoice(sessionId)
}

// VoiceChannel reports which voice channel the session is currently in.
func (p *PresenceRegistry) VoiceChannel(sessionId string) (string, bool) {
	channelId, ok := p.voiceChannel[sessionId]
	return channelId, ok
}

// Roster returns a copy of the channel's ordered participant list.
func (p *PresenceRegistry) Roster(channelId string) []types.VoiceParticipant {
	return slices.Clone(p.voice[channelId])
}

func (p *PresenceRegistry) removeFromRoster(channelId, sessionId string) {
	p.voice[channelId] = slices.DeleteFunc(p.voice[channelId], func(part types.VoiceParticipant) bool {
		return part.SessionId == sessionId
	})
	if len(p.voice[channelId]) == 0 {
		delete(p.voice, channelId)
	}
	delete(p.voiceChannel, sessionId)
}
