package storage

import "time"

// User is the persistent account record. Phone and GoogleID are the two
// alternative lookup keys; each is unique when present.
type User struct {
	ID     int64
	Phone  *string
	Name   string
	Avatar *string
	Email  *string
	Online bool
}

// Session is an opaque login token minted on every successful authentication
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Peer summarizes the other member of a direct chat
type Peer struct {
	ID     int64
	Name   string
	Avatar *string
	Online bool
}

// ChatSummary is one row of the conversation list: the chat annotated with
// its resolved display name, the direct-chat peer (nil for groups) and the
// latest message preview. LastMessageAt is nil for chats without messages.
type ChatSummary struct {
	ID            int64
	Name          string
	IsGroup       bool
	IsGlobal      bool
	Peer          *Peer
	LastMessage   string
	LastMessageAt *time.Time
}

// Message is a stored message row enriched with the sender's current display
// name and avatar
type Message struct {
	ID            int64
	ChatID        int64
	SenderID      int64
	SenderName    string
	SenderAvatar  *string
	Text          *string
	MediaURL      *string
	MediaType     *string
	IsVoice       bool
	VoiceDuration *int32
	CreatedAt     time.Time
}

// NewMessage is the payload accepted by CreateMessage
type NewMessage struct {
	ChatID        int64
	SenderID      int64
	Text          *string
	MediaURL      *string
	MediaType     *string
	IsVoice       bool
	VoiceDuration *int32
}

// FavoriteMessage is a bookmarked message together with the bookmark time
type FavoriteMessage struct {
	Message
	FavoritedAt time.Time
}

// Contact is a directory entry for any user other than the requester
type Contact struct {
	ID     int64
	Name   string
	Avatar *string
	Online bool
	Phone  *string
}
