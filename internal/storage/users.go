package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

// sessionTTL is advisory: tokens past it are expired but are not revoked
const sessionTTL = 30 * 24 * time.Hour

const userColumns = "id, phone, name, avatar, email, online"

// AuthIdentity is the credential resolved by one of the two auth paths.
// Exactly one lookup key is set: Phone for phone logins, GoogleID for
// verified identity tokens. Name, Avatar and Email seed a newly created user.
type AuthIdentity struct {
	Phone    string
	GoogleID string
	Name     string
	Avatar   string
	Email    string
}

// Authenticate finds or creates the user for identity and mints a fresh
// session, both inside a single transaction. A unique violation means a
// concurrent request created the same user between lookup and insert; the
// whole transaction is retried once so the refresh path picks the row up.
func (s *Store) Authenticate(ctx context.Context, identity AuthIdentity) (User, Session, error) {
	user, session, err := s.authenticate(ctx, identity)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return s.authenticate(ctx, identity)
	}

	return user, session, err
}

func (s *Store) authenticate(ctx context.Context, identity AuthIdentity) (User, Session, error) {
	s.logger.Debugf("Authenticating user (phone: %q, subject: %q)", identity.Phone, identity.GoogleID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return User{}, Session{}, err
	}
	// error handling can be omitted for rollback according docs
	// see https://pkg.go.dev/github.com/jackc/pgx/v4?tab=doc#hdr-Transactions or any source comment on Rollback
	defer tx.Rollback(context.Background())

	var user User
	if identity.GoogleID != "" {
		user, err = upsertBySubject(ctx, tx, identity)
	} else {
		user, err = upsertByPhone(ctx, tx, identity)
	}
	if err != nil {
		return User{}, Session{}, err
	}

	session, err := createSession(ctx, tx, user.ID)
	if err != nil {
		return User{}, Session{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return User{}, Session{}, err
	}

	s.logger.Debugf("Authenticated user (id: %d)", user.ID)

	return user, session, nil
}

func upsertByPhone(ctx context.Context, tx pgx.Tx, identity AuthIdentity) (User, error) {
	var id int64
	err := tx.QueryRow(ctx, "select id from users where phone = $1", identity.Phone).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		sql := "insert into users (phone, name, online) values ($1, $2, true) returning " + userColumns
		return scanUser(tx.QueryRow(ctx, sql, identity.Phone, identity.Name))
	}
	if err != nil {
		return User{}, err
	}

	sql := "update users set online = true, last_seen = now() where id = $1 returning " + userColumns
	return scanUser(tx.QueryRow(ctx, sql, id))
}

func upsertBySubject(ctx context.Context, tx pgx.Tx, identity AuthIdentity) (User, error) {
	var id int64
	err := tx.QueryRow(ctx, "select id from users where google_id = $1", identity.GoogleID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		sql := `insert into users (google_id, name, avatar, email, online)
				values ($1, $2, nullif($3, ''), nullif($4, ''), true)
				returning ` + userColumns
		return scanUser(tx.QueryRow(ctx, sql, identity.GoogleID, identity.Name, identity.Avatar, identity.Email))
	}
	if err != nil {
		return User{}, err
	}

	sql := `update users
			   set online = true,
				   last_seen = now(),
				   avatar = coalesce(nullif($2, ''), avatar),
				   email = coalesce(nullif($3, ''), email)
			 where id = $1
			returning ` + userColumns
	return scanUser(tx.QueryRow(ctx, sql, id, identity.Avatar, identity.Email))
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Phone, &u.Name, &u.Avatar, &u.Email, &u.Online)
	return u, err
}

func createSession(ctx context.Context, tx pgx.Tx, userID int64) (Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return Session{}, err
	}

	expiresAt := time.Now().Add(sessionTTL)
	sql := "insert into user_sessions (user_id, token, expires_at) values ($1, $2, $3)"
	if _, err = tx.Exec(ctx, sql, userID, token, expiresAt); err != nil {
		return Session{}, err
	}

	return Session{Token: token, UserID: userID, ExpiresAt: expiresAt}, nil
}

// newSessionToken returns 256 bits from crypto/rand, hex-encoded
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ContactsByUserID returns every user other than the requester, ordered by
// display name
func (s *Store) ContactsByUserID(ctx context.Context, user int64) ([]Contact, error) {
	s.logger.Debugf("Retrieving contacts for user (id: %d)", user)

	sql := `select id, name, avatar, online, phone
			  from users
			 where id != $1
			 order by name asc`

	rows, err := s.db.Query(ctx, sql, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err = rows.Scan(&c.ID, &c.Name, &c.Avatar, &c.Online, &c.Phone); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d contacts", len(contacts))

	return contacts, nil
}
