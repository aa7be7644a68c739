package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/voidchat/relay/internal/server"
)

func (s *VoidChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *VoidChatApp) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *VoidChatApp) listServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.db.ListServers()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, servers)
}

// listChannels returns the server's channels. An unknown server id yields an
// empty array, not an error.
func (s *VoidChatApp) listChannels(w http.ResponseWriter, r *http.Request) {
	serverId := r.PathValue("serverId")

	channels, err := s.db.ListChannels(serverId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, channels)
}

// listMessages returns the channel's messages ascending by timestamp. An
// unknown or empty channel yields an empty array.
func (s *VoidChatApp) listMessages(w http.ResponseWriter, r *http.Request) {
	channelId := r.PathValue("channelId")

	messages, err := s.db.ListMessages(channelId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *VoidChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId := r.URL.Query().Get("user_id")
	userName := r.URL.Query().Get("user_name")
	if strings.TrimSpace(userId) == "" || strings.TrimSpace(userName) == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin) || slices.Contains(s.allowedOrigins, "*")
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(userId, userName, conn, s.hub, s.log)

	s.hub.RegisterClient(client)
	go client.Write()
	go client.Read()
}
