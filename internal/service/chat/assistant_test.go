package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatResponse), args.Error(1)
}

func (m *MockChatAPI) ChatStream(ctx context.Context, req domain.ChatRequest) (*client.StreamReader, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.StreamReader), args.Error(1)
}

func (m *MockChatAPI) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func sseBody(frames ...string) *client.StreamReader {
	return client.NewStreamReader(io.NopCloser(strings.NewReader(strings.Join(frames, ""))))
}

// blockingBody never yields data and unblocks only when closed.
type blockingBody struct {
	closed chan struct{}
	once   sync.Once
}

func (b *blockingBody) Read([]byte) (int, error) {
	<-b.closed
	return 0, io.ErrClosedPipe
}

func (b *blockingBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func newConversation(t *testing.T) (*ConversationStore, string) {
	t.Helper()
	store, _ := newTestStore(t)
	conv, err := store.Create(context.Background(), "chat")
	require.NoError(t, err)
	return store, conv.ID
}

func TestAssistant_SendStreams(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}
	ctx := context.Background()

	api.On("ChatStream", mock.Anything, domain.ChatRequest{Message: "find me a flight"}).Return(sseBody(
		"data: {\"delta\":\"Sure, \"}\n\n",
		"event: tool_result\ndata: {\"tool\":\"get_my_orders\"}\n\n",
		"data: {\"delta\":\" here you go\"}\n\n",
		"event: final\ndata: {\"suggestions\":[{\"label\":\"Search\",\"route\":\"/flights\"}]}\n\n",
	), nil).Once()

	var kinds []domain.ChatEventKind
	reply, err := NewAssistant(api, store).Send(ctx, convID, "  find me a flight ", func(ev domain.ChatEvent) {
		kinds = append(kinds, ev.Kind)
	})
	require.NoError(t, err)
	assert.False(t, reply.Fallback)
	assert.Equal(t, "Sure, \nYour orders have been summarized. here you go", reply.Message.Content)
	assert.Equal(t, domain.RoleAssistant, reply.Message.Role)
	require.Len(t, reply.Suggestions, 1)
	assert.Equal(t, "/flights", reply.Suggestions[0].Route)
	assert.Equal(t, []domain.ChatEventKind{domain.ChatEventDelta, domain.ChatEventTool, domain.ChatEventDelta, domain.ChatEventFinal}, kinds)

	conv, err := store.Get(ctx, convID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "find me a flight", conv.Messages[0].Content)
	assert.Equal(t, reply.Message.ID, conv.Messages[1].ID)
	api.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestAssistant_FallsBackWhenStreamFails(t *testing.T) {
	testCases := []struct {
		name   string
		stream func(api *MockChatAPI)
	}{
		{
			name: "stream cannot open",
			stream: func(api *MockChatAPI) {
				api.On("ChatStream", mock.Anything, mock.Anything).Return(nil, &domain.HTTPError{StatusCode: 502, Body: "bad gateway"}).Once()
			},
		},
		{
			name: "server error event",
			stream: func(api *MockChatAPI) {
				api.On("ChatStream", mock.Anything, mock.Anything).Return(sseBody(
					"data: {\"delta\":\"partial\"}\n\n",
					"event: error\ndata: {\"error\":\"LLM_DOWN\"}\n\n",
				), nil).Once()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, convID := newConversation(t)
			api := &MockChatAPI{}
			tc.stream(api)
			api.On("Chat", mock.Anything, domain.ChatRequest{Message: "hello"}).Return(&domain.ChatResponse{
				Reply:       "Hi there",
				Suggestions: []domain.Suggestion{{Label: "My orders"}, {Label: "Search flights"}},
				Orders:      []domain.OrderSummary{{OrderNo: "ORD20251101001", Status: "paid", PaymentStatus: "paid", Total: 99900}},
			}, nil).Once()

			reply, err := NewAssistant(api, store).Send(context.Background(), convID, "hello", nil)
			require.NoError(t, err)
			assert.True(t, reply.Fallback)
			assert.Equal(t, "Hi there\nAvailable actions: My orders, Search flights\nRecent orders: ORD20251101001(paid/paid) amount 999.00", reply.Message.Content)
			assert.Len(t, reply.Orders, 1)
			api.AssertExpectations(t)
		})
	}
}

func TestAssistant_StreamTimeoutFallsBack(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}
	body := &blockingBody{closed: make(chan struct{})}
	reader := client.NewStreamReader(body)

	api.On("ChatStream", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		streamCtx := args.Get(0).(context.Context)
		go func() {
			<-streamCtx.Done()
			_ = body.Close()
		}()
	}).Return(reader, nil).Once()
	api.On("Chat", mock.Anything, mock.Anything).Return(&domain.ChatResponse{Reply: "slow path"}, nil).Once()

	reply, err := NewAssistant(api, store, WithStreamTimeout(20*time.Millisecond)).Send(context.Background(), convID, "hello", nil)
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, "slow path", reply.Message.Content)
}

func TestAssistant_BothPathsFail(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}
	api.On("ChatStream", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()
	api.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

	reply, err := NewAssistant(api, store).Send(context.Background(), convID, "hello", nil)
	assert.Error(t, err)
	assert.Nil(t, reply)

	conv, err := store.Get(context.Background(), convID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1, "only the user message is stored")
}

func TestAssistant_AuthErrorsDoNotFallBack(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}
	api.On("ChatStream", mock.Anything, mock.Anything).Return(nil, &domain.AuthExpiredError{LoginRoute: "/"}).Once()

	_, err := NewAssistant(api, store).Send(context.Background(), convID, "hello", nil)
	assert.ErrorIs(t, err, domain.ErrAuthExpired)
	api.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestAssistant_OrderDigest(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}
	order := domain.Order{ID: 9, OrderNo: "ORD20251101009", Status: domain.OrderStatusPaid, PaymentStatus: domain.PaymentStatusPaid, TotalAmount: 50000}

	api.On("ListOrders", mock.Anything, domain.OrderFilter{Limit: 100}).Return([]domain.Order{order}, nil).Once()
	api.On("ChatStream", mock.Anything, mock.Anything).Return(sseBody("data: {\"delta\":\"Anything else?\"}\n\n"), nil).Once()

	reply, err := NewAssistant(api, store).Send(context.Background(), convID, "where is ord20251101009?", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply.Message.Content, "Order ORD20251101009 status: paid/paid\n"))
	assert.True(t, strings.HasSuffix(reply.Message.Content, "\n\nAnything else?"))
	require.Len(t, reply.Orders, 1)
	assert.Equal(t, int64(9), reply.Orders[0].OrderID)
}

func TestAssistant_OrderLookupFailureIsIgnored(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}
	api.On("ListOrders", mock.Anything, mock.Anything).Return(nil, domain.ErrAuth).Once()
	api.On("ChatStream", mock.Anything, mock.Anything).Return(sseBody("data: {\"delta\":\"ok\"}\n\n"), nil).Once()

	reply, err := NewAssistant(api, store).Send(context.Background(), convID, "status of ORD12345678", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Message.Content)
	assert.Empty(t, reply.Orders)
}

func TestAssistant_Validation(t *testing.T) {
	store, convID := newConversation(t)
	api := &MockChatAPI{}

	_, err := NewAssistant(api, store).Send(context.Background(), convID, "   ", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewAssistant(api, store).Send(context.Background(), "missing", "hi", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
