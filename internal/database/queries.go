package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/teris-io/shortid"
	"github.com/voidchat/relay/internal/types"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	// maxIdAttempts bounds id regeneration on primary key collision.
	// Collisions are assumed negligible; the loop exists so a collision
	// surfaces as a retry rather than a lost message.
	maxIdAttempts = 3
)

func (db *PgChatRepository) ListServers() ([]types.Server, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, COALESCE(icon, '') FROM servers ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers = make([]types.Server, 0)
	for rows.Next() {
		var s types.Server
		if err = rows.Scan(&s.Id, &s.Name, &s.Icon); err != nil {
			break
		}

		servers = append(servers, s)
	}
	if err != nil {
		return nil, err
	}

	return servers, rows.Err()
}

func (db *PgChatRepository) ListChannels(serverId string) ([]types.Channel, error) {
	rows, err := db.conn.Query(
		"SELECT id, server_id, name, type FROM channels WHERE server_id = $1 ORDER BY id",
		serverId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels = make([]types.Channel, 0)
	for rows.Next() {
		var ch types.Channel
		if err = rows.Scan(&ch.Id, &ch.ServerId, &ch.Name, &ch.Type); err != nil {
			break
		}

		channels = append(channels, ch)
	}
	if err != nil {
		return nil, err
	}

	return channels, rows.Err()
}

func (db *PgChatRepository) ListMessages(channelId string) ([]types.Message, error) {
	rows, err := db.conn.Query(
		"SELECT id, channel_id, user_id, user_name, content, timestamp FROM messages "+
			"WHERE channel_id = $1 ORDER BY timestamp ASC, seq ASC",
		channelId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]types.Message, 0)
	for rows.Next() {
		var msg types.Message
		if err = rows.Scan(&msg.Id, &msg.ChannelId, &msg.UserId, &msg.UserName, &msg.Content, &msg.Timestamp); err != nil {
			break
		}

		messages = append(messages, msg)
	}
	if err != nil {
		return nil, err
	}

	return messages, rows.Err()
}

// CreateMessage assigns the id and timestamp, writes the row, and returns the
// stored record. The write completes before the caller may broadcast. A
// primary key collision regenerates the id; an unknown channel maps to
// ErrUnknownChannel.
func (db *PgChatRepository) CreateMessage(params CreateMessageParams) (types.Message, error) {
	ts := time.Now().UTC().Round(time.Millisecond)

	var lastErr error
	for range maxIdAttempts {
		id, err := shortid.Generate()
		if err != nil {
			return types.Message{}, fmt.Errorf("generate message id: %w", err)
		}

		_, err = db.conn.Exec(
			"INSERT INTO messages (id, channel_id, user_id, user_name, content, timestamp) "+
				"VALUES ($1, $2, $3, $4, $5, $6)",
			id,
			params.ChannelId,
			params.UserId,
			params.UserName,
			params.Content,
			ts,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				switch string(pqErr.Code) {
				case pqUniqueViolation:
					lastErr = err
					continue
				case pqForeignKeyViolation:
					return types.Message{}, ErrUnknownChannel
				}
			}
			return types.Message{}, err
		}

		return types.Message{
			Id:        id,
			ChannelId: params.ChannelId,
			UserId:    params.UserId,
			UserName:  params.UserName,
			Content:   params.Content,
			Timestamp: ts,
		}, nil
	}

	return types.Message{}, fmt.Errorf("message id collision after %d attempts: %w", maxIdAttempts, lastErr)
}
