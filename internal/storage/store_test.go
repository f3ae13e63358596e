package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	mytesting "messenger-backend/internal/testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var migrateOnce sync.Once

func bootstrap(t *testing.T) *Store {
	if os.Getenv("TEST_DATABASE") == "" {
		t.Skip("set TEST_DATABASE to run tests against a local postgres instance")
	}

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	migrateOnce.Do(func() {
		require.NoError(t, Migrate(TestConfig, "../../migrations"))
	})

	s, err := NewStore(context.Background(), logger.Sugar(), TestConfig)
	require.NoError(t, err)

	return s
}

func registerPhoneUser(t *testing.T, s *Store) User {
	user, _, err := s.Authenticate(context.Background(), AuthIdentity{
		Phone: mytesting.RandPhone(),
		Name:  mytesting.RandString(),
	})
	require.NoError(t, err)

	return user
}

func TestAuthenticateByPhone(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	phone := mytesting.RandPhone()
	user, session, err := s.Authenticate(context.Background(), AuthIdentity{Phone: phone, Name: "Ann"})
	require.NoError(t, err)
	require.True(t, user.ID > 0)
	require.NotNil(t, user.Phone)
	require.Equal(t, phone, *user.Phone)
	require.Equal(t, "Ann", user.Name)
	require.True(t, user.Online)
	require.Len(t, session.Token, 64)
	require.Equal(t, user.ID, session.UserID)
}

func TestAuthenticateByPhoneRepeated(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	phone := mytesting.RandPhone()
	first, firstSession, err := s.Authenticate(context.Background(), AuthIdentity{Phone: phone, Name: "Ann"})
	require.NoError(t, err)
	second, secondSession, err := s.Authenticate(context.Background(), AuthIdentity{Phone: phone, Name: "Ann"})
	require.NoError(t, err)

	// a refresh reuses the account but mints a fresh token
	require.Equal(t, first.ID, second.ID)
	require.NotEqual(t, firstSession.Token, secondSession.Token)
}

func TestAuthenticateBySubject(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	identity := AuthIdentity{
		GoogleID: mytesting.RandString(),
		Name:     "Bob",
		Avatar:   "https://example.com/bob.png",
		Email:    "bob@example.com",
	}

	user, _, err := s.Authenticate(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, "Bob", user.Name)
	require.NotNil(t, user.Avatar)
	require.Equal(t, identity.Avatar, *user.Avatar)
	require.NotNil(t, user.Email)
	require.Equal(t, identity.Email, *user.Email)
	require.Nil(t, user.Phone)

	again, _, err := s.Authenticate(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
}

func TestCreateDirectChat(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)

	id, existed, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)
	require.False(t, existed)
	require.True(t, id > 0)
}

func TestCreateDirectChatIdempotent(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)

	first, _, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)

	// the pair resolves to the same chat regardless of who initiates
	second, existed, err := s.CreateDirectChat(context.Background(), userTwo.ID, userOne.ID)
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, first, second)
}

func TestCreateDirectChatContactNotExist(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	user := registerPhoneUser(t, s)

	// let's assume that test database will never has such sequence number in bigserial
	_, _, err := s.CreateDirectChat(context.Background(), user.ID, 9223372036854775807)
	require.Equal(t, ErrUserNotExist, err)
}

func TestCreateGroupChat(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	creator := registerPhoneUser(t, s)
	memberOne := registerPhoneUser(t, s)
	memberTwo := registerPhoneUser(t, s)

	// duplicates and the creator in the member list must not break the bulk insert
	members := []int64{memberOne.ID, memberTwo.ID, memberOne.ID, creator.ID}
	id, err := s.CreateGroupChat(context.Background(), creator.ID, mytesting.RandString(), "", members)
	require.NoError(t, err)
	require.True(t, id > 0)
}

func TestCreateGroupChatBadMembers(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	creator := registerPhoneUser(t, s)

	_, err := s.CreateGroupChat(context.Background(), creator.ID, mytesting.RandString(), "", []int64{9223372036854775807})
	require.Equal(t, ErrChatBadMembers, err)
}

func TestCreateMessage(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)
	chatID, _, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)

	text := mytesting.RandString()
	m, err := s.CreateMessage(context.Background(), NewMessage{ChatID: chatID, SenderID: userOne.ID, Text: &text})
	require.NoError(t, err)
	require.True(t, m.ID > 0)
	require.Equal(t, chatID, m.ChatID)
	require.NotNil(t, m.Text)
	require.Equal(t, text, *m.Text)
	require.Equal(t, userOne.Name, m.SenderName)
	require.False(t, m.CreatedAt.IsZero())
}

func TestCreateMessageChatNotExist(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	user := registerPhoneUser(t, s)

	text := mytesting.RandString()
	_, err := s.CreateMessage(context.Background(), NewMessage{ChatID: 9223372036854775807, SenderID: user.ID, Text: &text})
	require.Equal(t, ErrChatNotExist, err)
}

func TestCreateMessageNotChatMember(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)
	outsider := registerPhoneUser(t, s)

	chatID, _, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)

	text := mytesting.RandString()
	_, err = s.CreateMessage(context.Background(), NewMessage{ChatID: chatID, SenderID: outsider.ID, Text: &text})
	require.Equal(t, ErrNotChatMember, err)
}

func TestMessagesByChatIDOrdering(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)
	chatID, _, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)

	n := 5
	expected := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		text := mytesting.RandString()
		m, err := s.CreateMessage(context.Background(), NewMessage{ChatID: chatID, SenderID: userOne.ID, Text: &text})
		require.NoError(t, err)
		expected = append(expected, m.ID)
	}

	messages, err := s.MessagesByChatID(context.Background(), chatID)
	require.NoError(t, err)

	actual := make([]int64, 0, len(messages))
	for _, m := range messages {
		actual = append(actual, m.ID)
	}

	require.Equal(t, expected, actual)
}

func TestMessagesByChatIDChatNotExist(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	_, err := s.MessagesByChatID(context.Background(), 9223372036854775807)
	require.Equal(t, ErrChatNotExist, err)
}

func TestChatsByUserIDOrdering(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	n := 4
	userIDs := make([]int64, n)
	for i := range userIDs {
		userIDs[i] = registerPhoneUser(t, s).ID
	}

	// direct chats between users [0,1], [0,2], [0,3]
	chatIDs := make([]int64, 0, n-1)
	for _, pair := range mytesting.BatchUserIDs(userIDs) {
		id, _, err := s.CreateDirectChat(context.Background(), pair[0], pair[1])
		require.NoError(t, err)
		chatIDs = append(chatIDs, id)
	}

	for _, id := range chatIDs {
		text := mytesting.RandString()
		_, err := s.CreateMessage(context.Background(), NewMessage{ChatID: id, SenderID: userIDs[0], Text: &text})
		require.NoError(t, err)
		time.Sleep(1 * time.Second)
	}

	// a chat without messages sorts after every messaged chat
	silent := registerPhoneUser(t, s)
	silentChatID, _, err := s.CreateDirectChat(context.Background(), userIDs[0], silent.ID)
	require.NoError(t, err)

	expected := append(mytesting.ReverseIDs(chatIDs), silentChatID)

	chats, err := s.ChatsByUserID(context.Background(), userIDs[0])
	require.NoError(t, err)

	actual := make([]int64, 0, len(chats))
	for _, c := range chats {
		actual = append(actual, c.ID)
	}

	require.Equal(t, expected, actual)
}

func TestChatsByUserIDDirectChatPeer(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)
	chatID, _, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)

	chats, err := s.ChatsByUserID(context.Background(), userOne.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, chatID, chats[0].ID)
	require.Equal(t, userTwo.Name, chats[0].Name)
	require.NotNil(t, chats[0].Peer)
	require.Equal(t, userTwo.ID, chats[0].Peer.ID)
	require.Nil(t, chats[0].LastMessageAt)
}

func TestFavorites(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)
	chatID, _, err := s.CreateDirectChat(context.Background(), userOne.ID, userTwo.ID)
	require.NoError(t, err)

	text := mytesting.RandString()
	m, err := s.CreateMessage(context.Background(), NewMessage{ChatID: chatID, SenderID: userTwo.ID, Text: &text})
	require.NoError(t, err)

	// bookmarking twice keeps a single entry
	require.NoError(t, s.AddFavorite(context.Background(), userOne.ID, m.ID))
	require.NoError(t, s.AddFavorite(context.Background(), userOne.ID, m.ID))

	favorites, err := s.FavoritesByUserID(context.Background(), userOne.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.Equal(t, m.ID, favorites[0].ID)
	require.Equal(t, userTwo.Name, favorites[0].SenderName)
	require.False(t, favorites[0].FavoritedAt.IsZero())

	require.NoError(t, s.RemoveFavorite(context.Background(), userOne.ID, m.ID))
	// removing an absent bookmark is a silent no-op
	require.NoError(t, s.RemoveFavorite(context.Background(), userOne.ID, m.ID))

	favorites, err = s.FavoritesByUserID(context.Background(), userOne.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 0)
}

func TestAddFavoriteMessageNotExist(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	user := registerPhoneUser(t, s)

	err := s.AddFavorite(context.Background(), user.ID, 9223372036854775807)
	require.Equal(t, ErrMessageNotExist, err)
}

func TestContactsByUserID(t *testing.T) {
	t.Parallel()

	s := bootstrap(t)

	userOne := registerPhoneUser(t, s)
	userTwo := registerPhoneUser(t, s)

	contacts, err := s.ContactsByUserID(context.Background(), userOne.ID)
	require.NoError(t, err)

	var foundSelf, foundOther bool
	for _, c := range contacts {
		if c.ID == userOne.ID {
			foundSelf = true
		}
		if c.ID == userTwo.ID {
			foundOther = true
		}
	}
	require.False(t, foundSelf)
	require.True(t, foundOther)
}
