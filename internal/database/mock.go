package database

import (
	"github.com/stretchr/testify/mock"
	"github.com/voidchat/relay/internal/types"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) ListServers() ([]types.Server, error) {
	args := m.Called()
	return args.Get(0).([]types.Server), args.Error(1)
}
func (m *MockChatRepository) ListChannels(serverId string) ([]types.Channel, error) {
	args := m.Called(serverId)
	return args.Get(0).([]types.Channel), args.Error(1)
}
func (m *MockChatRepository) ListMessages(channelId string) ([]types.Message, error) {
	args := m.Called(channelId)
	return args.Get(0).([]types.Message), args.Error(1)
}
func (m *MockChatRepository) CreateMessage(params CreateMessageParams) (types.Message, error) {
	args := m.Called(params)
	return args.Get(0).(types.Message), args.Error(1)
}
