package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"brainboost/internal/database"
	"brainboost/internal/database/testutil"
	"brainboost/internal/errcode"
	"brainboost/internal/generation"
)

type stubResponder struct {
	reply     string
	err       error
	preambles []string
	histories [][]generation.Message
}

func (r *stubResponder) Chat(_ context.Context, preamble string, history []generation.Message) (string, error) {
	r.preambles = append(r.preambles, preamble)
	r.histories = append(r.histories, history)
	return r.reply, r.err
}

func newTestService(t *testing.T, r Responder) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewService(db, r, slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

func TestSendPersistsBothMessages(t *testing.T) {
	r := &stubResponder{reply: "Photosynthesis turns light into sugar."}
	svc, db := newTestService(t, r)
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com", "Biology", "Math")
	ctx := context.Background()

	reply, err := svc.Send(ctx, user, "What is photosynthesis?")
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis turns light into sugar.", reply)

	require.Len(t, r.preambles, 1)
	assert.Contains(t, r.preambles[0], "Ada")
	assert.Contains(t, r.preambles[0], "Biology, Math")
	assert.Contains(t, r.preambles[0], "visual")
	assert.Equal(t, []generation.Message{{Role: generation.RoleUser, Content: "What is photosynthesis?"}}, r.histories[0])

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, database.RoleUser, history[0].Role)
	assert.Equal(t, database.RoleAssistant, history[1].Role)
	assert.Less(t, history[0].ID, history[1].ID)
}

func TestSendContextIsLastTenMessages(t *testing.T) {
	r := &stubResponder{reply: "ok"}
	svc, db := newTestService(t, r)
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := svc.Send(ctx, user, fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}
	last := r.histories[len(r.histories)-1]
	require.Len(t, last, generation.ChatContextSize)
	assert.Equal(t, generation.RoleAssistant, last[0].Role)
	assert.Equal(t, generation.Message{Role: generation.RoleUser, Content: "q1"}, last[1])
	assert.Equal(t, "q5", last[9].Content)

	var chats int64
	require.NoError(t, db.Model(&database.Chat{}).Count(&chats).Error)
	assert.EqualValues(t, 1, chats)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc, db := newTestService(t, &stubResponder{})
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")

	_, err := svc.Send(context.Background(), user, "   ")
	assert.True(t, errcode.Is(err, errcode.Validation))
}

func TestSendUpstreamFailurePersistsNoMessages(t *testing.T) {
	svc, db := newTestService(t, &stubResponder{err: errcode.UpstreamFailed("generate chat", errors.New("timeout"))})
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")

	_, err := svc.Send(context.Background(), user, "hello")
	assert.True(t, errcode.Is(err, errcode.Upstream))

	history, err := svc.History(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryWithoutChatIsEmpty(t *testing.T) {
	svc, db := newTestService(t, &stubResponder{})
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")

	history, err := svc.History(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestClearIsIdempotentAndScoped(t *testing.T) {
	svc, db := newTestService(t, &stubResponder{reply: "hi"})
	ada := testutil.CreateUser(t, db, "Ada", "ada@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	ctx := context.Background()

	_, err := svc.Send(ctx, ada, "hello")
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob, "hello")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, ada.ID))
	require.NoError(t, svc.Clear(ctx, ada.ID))

	history, err := svc.History(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = svc.History(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.Send(ctx, ada, "again")
	require.NoError(t, err)
	history, err = svc.History(ctx, ada.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
