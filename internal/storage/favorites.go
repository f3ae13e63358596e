package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

// AddFavorite bookmarks a message for the user. Bookmarking an already
// favorited message is a no-op, not an error.
func (s *Store) AddFavorite(ctx context.Context, user, message int64) error {
	s.logger.Debugf("Adding favorite (user: %d, message: %d)", user, message)

	sql := "insert into favorites (user_id, message_id) values ($1, $2) on conflict do nothing"
	_, err := s.db.Exec(ctx, sql, user, message)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case "favorites_message_id_fkey":
				return ErrMessageNotExist
			case "favorites_user_id_fkey":
				return ErrUserNotExist
			}
		}
		return err
	}

	return nil
}

// RemoveFavorite deletes the bookmark. Removing an absent pair is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, user, message int64) error {
	s.logger.Debugf("Removing favorite (user: %d, message: %d)", user, message)

	_, err := s.db.Exec(ctx, "delete from favorites where user_id = $1 and message_id = $2", user, message)
	return err
}

// FavoritesByUserID returns the user's bookmarked messages joined with their
// senders, most recently favorited first
func (s *Store) FavoritesByUserID(ctx context.Context, user int64) ([]FavoriteMessage, error) {
	s.logger.Debugf("Retrieving favorites for user (id: %d)", user)

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
				   u.avatar,
				   f.created_at
			  from favorites f
			  join messages m
				on m.id = f.message_id
			  join users u
				on u.id = m.sender_id
			 where f.user_id = $1
			 order by f.created_at desc`

	rows, err := s.db.Query(ctx, sql, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []FavoriteMessage
	for rows.Next() {
		var f FavoriteMessage
		err = rows.Scan(&f.ID, &f.ChatID, &f.SenderID, &f.Text, &f.MediaURL, &f.MediaType,
			&f.IsVoice, &f.VoiceDuration, &f.CreatedAt, &f.SenderName, &f.SenderAvatar, &f.FavoritedAt)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d favorites", len(favorites))

	return favorites, nil
}
