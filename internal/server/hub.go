package server

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/voidchat/relay/internal/database"
	"github.com/voidchat/relay/internal/stats"
	"github.com/voidchat/relay/internal/types"
)

// RelayHub routes every inbound event through a single goroutine, so all
// mutation of presence state and the subscriber table is serialized. The
// persist-then-broadcast sequence for one event always completes before the
// next event is taken. Connection I/O stays concurrent: sessions read and
// write on their own goroutines and only meet the hub through channels.
type RelayHub struct {
	log      *log.Logger
	store    database.ChatRepository
	stats    stats.StatsProvider
	presence *PresenceRegistry

	clients map[*Client]struct{}
	// subscribers is the broadcast target table: channel id to the sessions
	// that receive its events.
	subscribers map[string]map[*Client]struct{}

	registerChan chan *Client
	eventChan    chan *ClientMessage
	stop         chan struct{}
	done         chan struct{}
}

func NewRelayHub(logger *log.Logger, store database.ChatRepository, sp stats.StatsProvider) *RelayHub {
	sp.RegisterMetric(stats.ActiveConnections)
	sp.RegisterMetric(stats.VoiceParticipants)
	sp.RegisterMetric(stats.MessagesPersisted)
	sp.RegisterMetric(stats.EventsDropped)

	return &RelayHub{
		log:          logger,
		store:        store,
		stats:        sp,
		presence:     NewPresenceRegistry(),
		clients:      make(map[*Client]struct{}),
		subscribers:  make(map[string]map[*Client]struct{}),
		registerChan: make(chan *Client),
		eventChan:    make(chan *ClientMessage, 256),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (h *RelayHub) Run() {
	for {
		select {
		case c := <-h.registerChan:
			h.addClient(c)
		case msg := <-h.eventChan:
			h.dispatch(msg)
		case <-h.stop:
			h.log.Println("stopping sessions")
			for c := range h.clients {
				c.stopClient()
			}

			close(h.done)
			return
		}
	}
}

func (h *RelayHub) RegisterClient(c *Client) {
	select {
	case h.registerChan <- c:
	case <-h.done:
	}
}

// Submit hands an event to the hub loop. It blocks rather than drops, so a
// session's own events are processed in the order it sent them.
func (h *RelayHub) Submit(msg *ClientMessage) {
	select {
	case h.eventChan <- msg:
	case <-h.done:
	}
}

func (h *RelayHub) Shutdown(ctx context.Context) error {
	close(h.stop)

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *RelayHub) dispatch(msg *ClientMessage) {
	c := msg.client

	if msg.disconnect {
		h.handleDisconnect(c)
		return
	}

	if _, ok := h.clients[c]; !ok {
		// event raced the session's own disconnect
		return
	}

	switch {
	case msg.Subscribe != nil:
		h.subscribe(msg.Subscribe.ChannelId, c)
	case msg.TypingStart != nil:
		h.handleTypingStart(c, msg.TypingStart)
	case msg.TypingStop != nil:
		h.handleTypingStop(c, msg.TypingStop)
	case msg.JoinVoice != nil:
		h.handleJoinVoice(c, msg.JoinVoice)
	case msg.LeaveVoice != nil:
		h.handleLeaveVoice(c, msg.LeaveVoice)
	case msg.SendMessage != nil:
		h.handleSendMessage(c, msg.SendMessage)
	}
}

func (h *RelayHub) addClient(c *Client) {
	h.clients[c] = struct{}{}
	h.stats.Incr(stats.ActiveConnections)
	h.log.Printf("registered session %s for user %q", c.sessionId, c.userName)
}

func (h *RelayHub) subscribe(channelId string, c *Client) {
	set, ok := h.subscribers[channelId]
	if !ok {
		set = make(map[*Client]struct{})
		h.subscribers[channelId] = set
	}
	set[c] = struct{}{}
	c.subs[channelId] = struct{}{}
}

func (h *RelayHub) unsubscribe(channelId string, c *Client) {
	if set, ok := h.subscribers[channelId]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subscribers, channelId)
		}
	}
	delete(c.subs, channelId)
}

func (h *RelayHub) handleTypingStart(c *Client, ev *TypingEvent) {
	names := h.presence.StartTyping(ev.ChannelId, ev.UserName)
	c.typingIn[ev.ChannelId] = struct{}{}

	// the sender sees its own typing indicator
	h.broadcast(ev.ChannelId, &ServerMessage{
		TypingUpdate: &TypingUpdate{ChannelId: ev.ChannelId, Users: names},
	})
}

func (h *RelayHub) handleTypingStop(c *Client, ev *TypingEvent) {
	names := h.presence.StopTyping(ev.ChannelId, ev.UserName)
	delete(c.typingIn, ev.ChannelId)

	h.broadcast(ev.ChannelId, &ServerMessage{
		TypingUpdate: &TypingUpdate{ChannelId: ev.ChannelId, Users: names},
	})
}

func (h *RelayHub) handleJoinVoice(c *Client, ev *JoinVoice) {
	_, hadVoice := h.presence.VoiceChannel(c.sessionId)

	participant := types.VoiceParticipant{
		SessionId: c.sessionId,
		UserId:    ev.UserId,
		UserName:  ev.UserName,
	}

	prevChannelId, others := h.presence.JoinVoice(ev.ChannelId, participant)
	if prevChannelId != "" {
		// implicit leave of the previous voice channel, reported there
		h.unsubscribe(prevChannelId, c)
		h.broadcast(prevChannelId, &ServerMessage{
			UserLeftVoice: &VoiceDeparture{ChannelId: prevChannelId, SessionId: c.sessionId},
		})
	}

	// joining voice also subscribes the session to the channel's events
	h.subscribe(ev.ChannelId, c)

	h.broadcast(ev.ChannelId, &ServerMessage{
		UserJoinedVoice: &VoiceJoin{ChannelId: ev.ChannelId, Participant: participant},
	})

	// current roster, excluding the joiner, goes to the joiner only
	c.queueMessage(&ServerMessage{
		VoiceUsersList: &VoiceUsersList{ChannelId: ev.ChannelId, Participants: others},
	})

	if !hadVoice {
		h.stats.Incr(stats.VoiceParticipants)
	}
}

func (h *RelayHub) handleLeaveVoice(c *Client, ev *LeaveVoice) {
	channelId, ok := h.presence.VoiceChannel(c.sessionId)
	if !ok || channelId != ev.ChannelId {
		return
	}

	h.presence.LeaveVoice(c.sessionId)
	h.unsubscribe(channelId, c)
	h.stats.Decr(stats.VoiceParticipants)

	h.broadcast(channelId, &ServerMessage{
		UserLeftVoice: &VoiceDeparture{ChannelId: channelId, SessionId: c.sessionId},
	})
}

func (h *RelayHub) handleSendMessage(c *Client, ev *SendMessage) {
	if strings.TrimSpace(ev.Content) == "" {
		return
	}

	msg, err := h.store.CreateMessage(database.CreateMessageParams{
		ChannelId: ev.ChannelId,
		UserId:    ev.UserId,
		UserName:  ev.UserName,
		Content:   ev.Content,
	})
	if err != nil {
		if errors.Is(err, database.ErrUnknownChannel) {
			h.log.Printf("dropping message for unknown channel %q", ev.ChannelId)
			return
		}

		// nothing was persisted, so nothing is broadcast
		h.log.Printf("error saving message for channel %q: %v", ev.ChannelId, err)
		return
	}

	h.stats.Incr(stats.MessagesPersisted)
	h.broadcast(ev.ChannelId, &ServerMessage{NewMessage: &msg})
}

func (h *RelayHub) handleDisconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)

	for channelId := range c.subs {
		h.unsubscribe(channelId, c)
	}

	if channelId, ok := h.presence.DropSession(c.sessionId); ok {
		h.stats.Decr(stats.VoiceParticipants)
		h.broadcast(channelId, &ServerMessage{
			UserLeftVoice: &VoiceDeparture{ChannelId: channelId, SessionId: c.sessionId},
		})
	}

	// a session that vanished mid-typing would otherwise stay listed forever
	for channelId := range c.typingIn {
		names := h.presence.StopTyping(channelId, c.userName)
		h.broadcast(channelId, &ServerMessage{
			TypingUpdate: &TypingUpdate{ChannelId: channelId, Users: names},
		})
	}

	c.stopClient()
	h.stats.Decr(stats.ActiveConnections)
	h.log.Printf("removed session %s for user %q", c.sessionId, c.userName)
}

func (h *RelayHub) broadcast(channelId string, msg *ServerMessage) {
	for c := range h.subscribers[channelId] {
		if !c.queueMessage(msg) {
			h.stats.Incr(stats.EventsDropped)
		}
	}
}
