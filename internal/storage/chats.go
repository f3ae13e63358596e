package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

// ChatsByUserID returns every chat the user belongs to, annotated with its
// resolved display name (group name, else the other member's name, else the
// "Chat" fallback), the direct-chat peer and the latest message preview.
// Chats are ordered by last message time from latest to oldest, with chats
// that have no messages sorted last.
func (s *Store) ChatsByUserID(ctx context.Context, user int64) ([]ChatSummary, error) {
	s.logger.Debugf("Retrieving chats for user (id: %d)", user)

	sql := `select c.id,
				   c.is_group,
				   c.is_global,
				   coalesce(c.group_name, peer.name, 'Chat'),
				   peer.id,
				   peer.name,
				   peer.avatar,
				   peer.online,
				   last.text,
				   last.created_at
			  from chats c
			  join chat_members cm
				on cm.chat_id = c.id
			  left join lateral (
					select u.id, u.name, u.avatar, u.online
					  from chat_members m
					  join users u
						on u.id = m.user_id
					 where m.chat_id = c.id
					   and m.user_id != $1
					 limit 1
			  ) peer on true
			  left join lateral (
					select m.text, m.created_at
					  from messages m
					 where m.chat_id = c.id
					 order by m.created_at desc, m.id desc
					 limit 1
			  ) last on true
			 where cm.user_id = $1
			 order by last.created_at desc nulls last, c.id desc`

	rows, err := s.db.Query(ctx, sql, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []ChatSummary
	for rows.Next() {
		var (
			c          ChatSummary
			peerID     *int64
			peerName   *string
			peerAvatar *string
			peerOnline *bool
			lastText   *string
			lastAt     pgtype.Timestamptz
		)

		err = rows.Scan(&c.ID, &c.IsGroup, &c.IsGlobal, &c.Name,
			&peerID, &peerName, &peerAvatar, &peerOnline, &lastText, &lastAt)
		if err != nil {
			return nil, err
		}

		// the peer subquery picks an arbitrary member for group chats; only
		// direct chats expose one
		if !c.IsGroup && peerID != nil {
			c.Peer = &Peer{ID: *peerID, Avatar: peerAvatar}
			if peerName != nil {
				c.Peer.Name = *peerName
			}
			if peerOnline != nil {
				c.Peer.Online = *peerOnline
			}
		}
		if lastText != nil {
			c.LastMessage = *lastText
		}
		if lastAt.Status == pgtype.Present {
			t := lastAt.Time
			c.LastMessageAt = &t
		}

		chats = append(chats, c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d chats", len(chats))

	return chats, nil
}

// CreateDirectChat finds the existing direct chat between user and contact or
// creates one with both membership rows in a single transaction. The returned
// bool reports whether the chat already existed.
func (s *Store) CreateDirectChat(ctx context.Context, user, contact int64) (int64, bool, error) {
	s.logger.Debugf("Creating direct chat between users (%d, %d)", user, contact)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(context.Background())

	var id int64
	sql := `select c.id
			  from chats c
			  join chat_members a
				on a.chat_id = c.id and a.user_id = $1
			  join chat_members b
				on b.chat_id = c.id and b.user_id = $2
			 where c.is_group = false
			 limit 1`
	err = tx.QueryRow(ctx, sql, user, contact).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	err = tx.QueryRow(ctx, "insert into chats (is_group) values (false) returning id").Scan(&id)
	if err != nil {
		return 0, false, err
	}

	sql = "insert into chat_members (chat_id, user_id) values ($1, $2), ($1, $3)"
	if _, err = tx.Exec(ctx, sql, id, user, contact); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, false, ErrUserNotExist
		}
		return 0, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, false, err
	}

	s.logger.Debugf("Created direct chat with id %d", id)

	return id, false, nil
}

// CreateGroupChat creates a group chat and bulk inserts the membership rows:
// the creator plus every distinct listed member
func (s *Store) CreateGroupChat(ctx context.Context, creator int64, name, avatar string, members []int64) (int64, error) {
	s.logger.Debugf("Creating group chat (%s) with members (%v)", name, members)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(context.Background())

	var id int64
	sql := `insert into chats (is_group, group_name, group_avatar)
			values (true, nullif($1, ''), nullif($2, ''))
			returning id`
	if err = tx.QueryRow(ctx, sql, name, avatar).Scan(&id); err != nil {
		return 0, err
	}

	rows := memberRows(id, creator, members)
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"chat_members"}, []string{"chat_id", "user_id"}, copyFromMembers(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, ErrChatBadMembers
		}
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.logger.Debugf("Created group chat (%s) with id %d", name, id)

	return id, nil
}
