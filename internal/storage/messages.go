package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
)

const messageColumns = "id, chat_id, sender_id, text, media_url, media_type, is_voice, voice_duration, created_at"

// CreateMessage appends one immutable message row with a server-assigned
// timestamp after verifying the sender is a member of the target chat, and
// returns the stored row enriched with the sender's current name and avatar
func (s *Store) CreateMessage(ctx context.Context, msg NewMessage) (Message, error) {
	s.logger.Debugf("Creating message from user (id: %d) in chat (id: %d)", msg.SenderID, msg.ChatID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback(context.Background())

	var i int8
	err = tx.QueryRow(ctx, "select 1 from chat_members where chat_id = $1 and user_id = $2",
		msg.ChatID, msg.SenderID).Scan(&i)
	if errors.Is(err, pgx.ErrNoRows) {
		// distinguish a missing chat from a non-member sender
		err = tx.QueryRow(ctx, "select 1 from chats where id = $1", msg.ChatID).Scan(&i)
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrChatNotExist
		}
		if err != nil {
			return Message{}, err
		}
		return Message{}, ErrNotChatMember
	}
	if err != nil {
		return Message{}, err
	}

	sql := `with inserted as (
				insert into messages (chat_id, sender_id, text, media_url, media_type, is_voice, voice_duration)
				values ($1, $2, $3, $4, $5, $6, $7)
				returning ` + messageColumns + `
			)
			select inserted.*, u.name, u.avatar
			  from inserted
			  join users u
				on u.id = inserted.sender_id`

	var m Message
	err = tx.QueryRow(ctx, sql,
		msg.ChatID, msg.SenderID, msg.Text, msg.MediaURL, msg.MediaType, msg.IsVoice, msg.VoiceDuration).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Text, &m.MediaURL, &m.MediaType,
			&m.IsVoice, &m.VoiceDuration, &m.CreatedAt, &m.SenderName, &m.SenderAvatar)
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Message{}, err
	}

	return m, nil
}

// MessagesByChatID returns the full message log of a chat sorted by creation
// time from earliest to latest, with the message id as a stable tie-break
func (s *Store) MessagesByChatID(ctx context.Context, chat int64) ([]Message, error) {
	s.logger.Debugf("Retrieving messages for chat (id: %d)", chat)

	// check if chat exists
	var i int8
	err := s.db.QueryRow(ctx, "select 1 from chats where id = $1", chat).Scan(&i)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotExist
		}
		return nil, err
	}

	sql := `select m.id,
				   m.chat_id,
				   m.sender_id,
				   m.text,
				   m.media_url,
				   m.media_type,
				   m.is_voice,
				   m.voice_duration,
				   m.created_at,
				   u.name,
				   u.avatar
			  from messages m
			  join users u
				on u.id = m.sender_id
			 where m.chat_id = $1
			 order by m.created_at asc, m.id asc`

	rows, err := s.db.Query(ctx, sql, chat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		err = rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Text, &m.MediaURL, &m.MediaType,
			&m.IsVoice, &m.VoiceDuration, &m.CreatedAt, &m.SenderName, &m.SenderAvatar)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}
