package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-chat-api/internal/domain"
)

type mockChatStore struct{ mock.Mock }

func (m *mockChatStore) CreatePrivate(ctx context.Context, c *domain.Chat) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockChatStore) PairChatID(ctx context.Context, userA, userB string) (string, error) {
	args := m.Called(ctx, userA, userB)
	return args.String(0), args.Error(1)
}

func (m *mockChatStore) Get(ctx context.Context, chatID string) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *mockChatStore) IsMember(ctx context.Context, userID, chatID string) (bool, error) {
	args := m.Called(ctx, userID, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *mockChatStore) ListMemberships(ctx context.Context, userID string) ([]domain.ChatMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMember), args.Error(1)
}

func (m *mockChatStore) Touch(ctx context.Context, chatID string, at time.Time) error {
	return m.Called(ctx, chatID, at).Error(0)
}

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Put(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageStore) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *mockMessageStore) Latest(ctx context.Context, chatID string) (*domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockMessageStore) CountUnread(ctx context.Context, chatID, excludeSenderID string) (int, error) {
	args := m.Called(ctx, chatID, excludeSenderID)
	return args.Int(0), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newService(chats *mockChatStore, msgs *mockMessageStore, users *mockUserStore) Service {
	return NewService(ServiceDeps{ChatRepo: chats, MessageRepo: msgs, UserRepo: users})
}

func TestCreateOrGetPrivateChat_UnknownParticipant(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	users.On("GetByPhone", mock.Anything, "+15550000002").Return(nil, domain.ErrNotFound)

	svc := newService(chats, msgs, users)
	_, err := svc.CreateOrGetPrivateChat(context.Background(), "caller-1", "+1 (555) 000-0002")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	users.AssertExpectations(t)
}

func TestCreateOrGetPrivateChat_SelfChatRejected(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	users.On("GetByPhone", mock.Anything, "+15550000001").
		Return(&domain.User{UserID: "caller-1", PhoneNumber: "+15550000001"}, nil)

	svc := newService(chats, msgs, users)
	_, err := svc.CreateOrGetPrivateChat(context.Background(), "caller-1", "+15550000001")

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCreateOrGetPrivateChat_ReturnsExistingChat(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	users.On("GetByPhone", mock.Anything, "+15550000002").
		Return(&domain.User{UserID: "peer-2", PhoneNumber: "+15550000002"}, nil)
	chats.On("PairChatID", mock.Anything, "caller-1", "peer-2").Return("chat-77", nil)

	svc := newService(chats, msgs, users)
	chatID, err := svc.CreateOrGetPrivateChat(context.Background(), "caller-1", "+15550000002")

	require.NoError(t, err)
	assert.Equal(t, "chat-77", chatID)
	chats.AssertNotCalled(t, "CreatePrivate", mock.Anything, mock.Anything)
}

func TestCreateOrGetPrivateChat_CreatesNewChat(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	users.On("GetByPhone", mock.Anything, "+15550000002").
		Return(&domain.User{UserID: "peer-2", PhoneNumber: "+15550000002"}, nil)
	chats.On("PairChatID", mock.Anything, "caller-1", "peer-2").Return("", domain.ErrNotFound)
	chats.On("CreatePrivate", mock.Anything, mock.MatchedBy(func(c *domain.Chat) bool {
		return c.ChatID != "" &&
			c.Type == domain.ChatTypePrivate &&
			c.MemberA == "caller-1" &&
			c.MemberB == "peer-2"
	})).Return(nil)

	svc := newService(chats, msgs, users)
	chatID, err := svc.CreateOrGetPrivateChat(context.Background(), "caller-1", "+15550000002")

	require.NoError(t, err)
	assert.NotEmpty(t, chatID)
	chats.AssertExpectations(t)
}

func TestCreateOrGetPrivateChat_LostRaceReusesWinner(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	users.On("GetByPhone", mock.Anything, "+15550000002").
		Return(&domain.User{UserID: "peer-2"}, nil)
	chats.On("PairChatID", mock.Anything, "caller-1", "peer-2").Return("", domain.ErrNotFound).Once()
	chats.On("CreatePrivate", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	chats.On("PairChatID", mock.Anything, "caller-1", "peer-2").Return("chat-winner", nil).Once()

	svc := newService(chats, msgs, users)
	chatID, err := svc.CreateOrGetPrivateChat(context.Background(), "caller-1", "+15550000002")

	require.NoError(t, err)
	assert.Equal(t, "chat-winner", chatID)
	chats.AssertExpectations(t)
}

func TestSendMessage_NonMemberForbidden(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	chats.On("IsMember", mock.Anything, "intruder", "chat-1").Return(false, nil)

	svc := newService(chats, msgs, users)
	_, err := svc.SendMessage(context.Background(), "intruder", SendMessageRequest{ChatID: "chat-1", Content: "hi"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	msgs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSendMessage_StoresAndTouchesChat(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	chats.On("IsMember", mock.Anything, "caller-1", "chat-1").Return(true, nil)
	msgs.On("Put", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ChatID == "chat-1" &&
			m.MessageID != "" &&
			m.SenderID == "caller-1" &&
			m.Content == "hello" &&
			m.Type == domain.MessageTypeText &&
			!m.IsRead
	})).Return(nil)
	chats.On("Touch", mock.Anything, "chat-1", mock.Anything).Return(nil)

	svc := newService(chats, msgs, users)
	m, err := svc.SendMessage(context.Background(), "caller-1", SendMessageRequest{ChatID: "chat-1", Content: "hello"})

	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeText, m.Type)
	chats.AssertExpectations(t)
	msgs.AssertExpectations(t)
}

func TestListMessages_JoinsSenderInfo(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	chats.On("IsMember", mock.Anything, "caller-1", "chat-1").Return(true, nil)
	msgs.On("ListByChat", mock.Anything, "chat-1").Return([]domain.Message{
		{ChatID: "chat-1", MessageID: "m1", SenderID: "caller-1", Content: "hi"},
		{ChatID: "chat-1", MessageID: "m2", SenderID: "peer-2", Content: "hey"},
		{ChatID: "chat-1", MessageID: "m3", SenderID: "caller-1", Content: "how are you"},
	}, nil)
	users.On("Get", mock.Anything, "caller-1").
		Return(&domain.User{UserID: "caller-1", Username: "alice"}, nil).Once()
	users.On("Get", mock.Anything, "peer-2").
		Return(&domain.User{UserID: "peer-2", Username: "bob", AvatarURL: "http://cdn/bob.png"}, nil).Once()

	svc := newService(chats, msgs, users)
	out, err := svc.ListMessages(context.Background(), "caller-1", "chat-1")

	require.NoError(t, err)
	require.Len(t, out, 3)
	require.NotNil(t, out[0].Sender)
	assert.Equal(t, "alice", out[0].Sender.Username)
	assert.Equal(t, "bob", out[1].Sender.Username)
	assert.Equal(t, "http://cdn/bob.png", out[1].Sender.AvatarURL)
	assert.Same(t, out[0].Sender, out[2].Sender)
	users.AssertExpectations(t)
}

func TestListMessages_NonMemberForbidden(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	chats.On("IsMember", mock.Anything, "intruder", "chat-1").Return(false, nil)

	svc := newService(chats, msgs, users)
	_, err := svc.ListMessages(context.Background(), "intruder", "chat-1")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	msgs.AssertNotCalled(t, "ListByChat", mock.Anything, mock.Anything)
}

func TestListChats_SummariesSortedByRecency(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	lastAt := time.Date(2026, 8, 2, 9, 59, 0, 0, time.UTC)

	chats.On("ListMemberships", mock.Anything, "caller-1").Return([]domain.ChatMember{
		{UserID: "caller-1", ChatID: "chat-old", PeerID: "peer-2"},
		{UserID: "caller-1", ChatID: "chat-new", PeerID: "peer-3"},
	}, nil)
	chats.On("Get", mock.Anything, "chat-old").
		Return(&domain.Chat{ChatID: "chat-old", Type: domain.ChatTypePrivate, UpdatedAt: older}, nil)
	chats.On("Get", mock.Anything, "chat-new").
		Return(&domain.Chat{ChatID: "chat-new", Type: domain.ChatTypePrivate, UpdatedAt: newer}, nil)
	users.On("Get", mock.Anything, "peer-2").
		Return(&domain.User{UserID: "peer-2", Username: "bob"}, nil)
	users.On("Get", mock.Anything, "peer-3").
		Return(&domain.User{UserID: "peer-3", Username: "carol", AvatarURL: "http://cdn/carol.png"}, nil)
	msgs.On("CountUnread", mock.Anything, "chat-old", "caller-1").Return(0, nil)
	msgs.On("CountUnread", mock.Anything, "chat-new", "caller-1").Return(3, nil)
	msgs.On("Latest", mock.Anything, "chat-old").Return(nil, domain.ErrNotFound)
	msgs.On("Latest", mock.Anything, "chat-new").
		Return(&domain.Message{ChatID: "chat-new", Content: "see you soon", CreatedAt: lastAt}, nil)

	svc := newService(chats, msgs, users)
	out, err := svc.ListChats(context.Background(), "caller-1")

	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "chat-new", out[0].ChatID)
	assert.Equal(t, "carol", out[0].Name)
	assert.Equal(t, "http://cdn/carol.png", out[0].AvatarURL)
	assert.Equal(t, 3, out[0].UnreadCount)
	assert.Equal(t, "see you soon", out[0].LastMessage)
	require.NotNil(t, out[0].LastMessageTime)
	assert.Equal(t, lastAt, *out[0].LastMessageTime)

	assert.Equal(t, "chat-old", out[1].ChatID)
	assert.Equal(t, "bob", out[1].Name)
	assert.Zero(t, out[1].UnreadCount)
	assert.Empty(t, out[1].LastMessage)
	assert.Nil(t, out[1].LastMessageTime)
}

func TestListChats_SkipsDanglingMembership(t *testing.T) {
	chats := new(mockChatStore)
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	chats.On("ListMemberships", mock.Anything, "caller-1").Return([]domain.ChatMember{
		{UserID: "caller-1", ChatID: "chat-gone", PeerID: "peer-2"},
	}, nil)
	chats.On("Get", mock.Anything, "chat-gone").Return(nil, domain.ErrNotFound)

	svc := newService(chats, msgs, users)
	out, err := svc.ListChats(context.Background(), "caller-1")

	require.NoError(t, err)
	assert.Empty(t, out)
}
