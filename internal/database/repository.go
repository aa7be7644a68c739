package database

import "github.com/voidchat/relay/internal/types"

type ChatRepository interface {
	Ping() error
	ListServers() ([]types.Server, error)
	ListChannels(serverId string) ([]types.Channel, error)
	ListMessages(channelId string) ([]types.Message, error)
	CreateMessage(params CreateMessageParams) (types.Message, error)
}
