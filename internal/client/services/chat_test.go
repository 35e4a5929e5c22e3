package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newChat(fc *fakeClient, opts ...ChatOption) ChatService {
	seq := 0
	var mu sync.Mutex
	base := []ChatOption{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("m%d", seq)
		}),
	}
	return NewChatService(fc, logging.NewNop(), append(base, opts...)...)
}

// gate blocks a fake call until released and reports when it started.
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait() {
	close(g.started)
	<-g.release
}

func history(msgs ...string) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for i, m := range msgs {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out = append(out, models.Message{Role: role, Content: m})
	}
	return out
}

func TestSelect_LoadsHistory(t *testing.T) {
	fc := &fakeClient{historyFn: func(_ context.Context, id int64) ([]models.Message, error) {
		require.Equal(t, int64(5), id)
		return history("hi", "hello"), nil
	}}
	chat := newChat(fc)

	require.Equal(t, StateIdle, chat.State())
	require.NoError(t, chat.Select(context.Background(), 5))

	assert.Equal(t, StateReady, chat.State())
	assert.Equal(t, int64(5), chat.Selected())
	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.True(t, m.Confirmed)
		assert.NotEmpty(t, m.ID)
	}
}

func TestSelect_ZeroDeselects(t *testing.T) {
	fc := &fakeClient{historyFn: func(context.Context, int64) ([]models.Message, error) {
		return history("hi"), nil
	}}
	chat := newChat(fc)
	ctx := context.Background()

	require.NoError(t, chat.Select(ctx, 5))
	require.NoError(t, chat.Select(ctx, 0))

	assert.Equal(t, StateIdle, chat.State())
	assert.Zero(t, chat.Selected())
	assert.Empty(t, chat.Messages())
	assert.Equal(t, []string{"chat_messages"}, fc.Calls())
}

func TestSelect_LoadFailureThenReload(t *testing.T) {
	ctx := context.Background()
	fail := true
	fc := &fakeClient{historyFn: func(context.Context, int64) ([]models.Message, error) {
		if fail {
			return nil, client.ErrUnavailable
		}
		return history("hi"), nil
	}}
	chat := newChat(fc)

	require.ErrorIs(t, chat.Select(ctx, 1), client.ErrUnavailable)
	assert.Equal(t, StateFailed, chat.State())
	assert.ErrorIs(t, chat.LoadErr(), client.ErrUnavailable)

	fail = false
	require.NoError(t, chat.Reload(ctx))
	assert.Equal(t, StateReady, chat.State())
	assert.NoError(t, chat.LoadErr())
	assert.Len(t, chat.Messages(), 1)
}

func TestReload_WithoutSelectionIsNoop(t *testing.T) {
	fc := &fakeClient{}
	require.NoError(t, newChat(fc).Reload(context.Background()))
	assert.Empty(t, fc.Calls())
}

// A history response for A that arrives after B was selected is dropped.
func TestSelect_StaleLoadIsDiscarded(t *testing.T) {
	ctx := context.Background()
	g := newGate()
	fc := &fakeClient{historyFn: func(_ context.Context, id int64) ([]models.Message, error) {
		if id == 1 {
			g.wait()
			return history("from A"), nil
		}
		return history("from B"), nil
	}}
	chat := newChat(fc)

	done := make(chan error, 1)
	go func() { done <- chat.Select(ctx, 1) }()
	<-g.started

	require.NoError(t, chat.Select(ctx, 2))
	close(g.release)
	require.NoError(t, <-done)

	assert.Equal(t, int64(2), chat.Selected())
	assert.Equal(t, StateReady, chat.State())
	msgs := chat.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "from B", msgs[0].Content)
}

func TestSelect_StaleLoadErrorIsDiscarded(t *testing.T) {
	ctx := context.Background()
	g := newGate()
	fc := &fakeClient{historyFn: func(_ context.Context, id int64) ([]models.Message, error) {
		if id == 1 {
			g.wait()
			return nil, client.ErrUnavailable
		}
		return history("from B"), nil
	}}
	chat := newChat(fc)

	done := make(chan error, 1)
	go func() { done <- chat.Select(ctx, 1) }()
	<-g.started

	require.NoError(t, chat.Select(ctx, 2))
	close(g.release)
	require.NoError(t, <-done, "stale failures are not reported")
	assert.Equal(t, StateReady, chat.State())
	assert.NoError(t, chat.LoadErr())
}

// The user message is visible before the server answers.
func TestSend_OptimisticInsert(t *testing.T) {
	ctx := context.Background()
	g := newGate()
	fc := &fakeClient{sendFn: func(context.Context, int64, string) (string, error) {
		g.wait()
		return "hello", nil
	}}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	done := make(chan error, 1)
	go func() { done <- chat.Send(ctx, 1, "hi") }()
	<-g.started

	msgs := chat.Messages()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Equal(t, "hi", last.Content)
	assert.False(t, last.Confirmed)
	assert.True(t, last.Pending())
	assert.Equal(t, fixedNow, last.Timestamp)

	close(g.release)
	require.NoError(t, <-done)
}

func TestSend_ReconcilesReply(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{
		historyFn: func(context.Context, int64) ([]models.Message, error) { return history("old q", "old a"), nil },
		sendFn: func(_ context.Context, id int64, text string) (string, error) {
			require.Equal(t, int64(1), id)
			require.Equal(t, "hi", text)
			return "hello", nil
		},
	}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))
	require.NoError(t, chat.Send(ctx, 1, "hi"))

	msgs := chat.Messages()
	require.Len(t, msgs, 4)

	user, reply := msgs[2], msgs[3]
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.Confirmed)
	assert.False(t, user.Failed)

	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "hello", reply.Content)
	assert.True(t, reply.Confirmed)
	assert.Equal(t, user.ID, reply.ReplyTo)
}

func TestSend_EmptyReplyAppendsNothing(t *testing.T) {
	ctx := context.Background()
	chat := newChat(&fakeClient{})
	require.NoError(t, chat.Select(ctx, 1))
	require.NoError(t, chat.Send(ctx, 1, "hi"))

	msgs := chat.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Confirmed)
}

func TestSend_FailureMarksMessage(t *testing.T) {
	ctx := context.Background()
	serverErr := &client.ServerError{StatusCode: 500, Body: "model overloaded"}
	fc := &fakeClient{sendFn: func(context.Context, int64, string) (string, error) { return "", serverErr }}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	err := chat.Send(ctx, 1, "hi")
	require.EqualError(t, err, "model overloaded")

	msgs := chat.Messages()
	require.Len(t, msgs, 1, "no assistant message on failure")
	assert.Equal(t, "hi", msgs[0].Content)
	assert.True(t, msgs[0].Failed)
	assert.False(t, msgs[0].Confirmed)
}

func TestSend_ValidationIsSilent(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	require.NoError(t, chat.Send(ctx, 0, "hi"))
	require.NoError(t, chat.Send(ctx, 1, ""))
	require.NoError(t, chat.Send(ctx, 1, " \t\n"))

	assert.Empty(t, chat.Messages())
	assert.Equal(t, []string{"chat_messages"}, fc.Calls())
}

func TestSend_NotSelectedSession(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	require.ErrorIs(t, chat.Send(ctx, 2, "hi"), ErrSessionNotSelected)
	assert.Empty(t, chat.Messages())
	assert.NotContains(t, fc.Calls(), "chat")
}

func TestSend_ClearsInputBuffer(t *testing.T) {
	ctx := context.Background()
	chat := newChat(&fakeClient{})
	require.NoError(t, chat.Select(ctx, 1))

	chat.SetInput("draft")
	assert.Equal(t, "draft", chat.Input())
	require.NoError(t, chat.Send(ctx, 1, "hi"))
	assert.Empty(t, chat.Input())
}

func TestSubmitInput(t *testing.T) {
	ctx := context.Background()
	var sent string
	fc := &fakeClient{sendFn: func(_ context.Context, _ int64, text string) (string, error) {
		sent = text
		return "ok", nil
	}}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 3))

	chat.SetInput("from buffer")
	require.NoError(t, chat.SubmitInput(ctx))

	assert.Equal(t, "from buffer", sent)
	assert.Empty(t, chat.Input())
	assert.Len(t, chat.Messages(), 2)
}

// A send that completes after the user switched sessions touches neither log.
func TestSend_CompletionAfterSwitchIsDropped(t *testing.T) {
	ctx := context.Background()
	g := newGate()
	fc := &fakeClient{
		historyFn: func(_ context.Context, id int64) ([]models.Message, error) {
			if id == 2 {
				return history("b1"), nil
			}
			return nil, nil
		},
		sendFn: func(context.Context, int64, string) (string, error) {
			g.wait()
			return "late reply", nil
		},
	}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	done := make(chan error, 1)
	go func() { done <- chat.Send(ctx, 1, "hi") }()
	<-g.started

	require.NoError(t, chat.Select(ctx, 2))
	close(g.release)
	require.NoError(t, <-done)

	msgs := chat.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "b1", msgs[0].Content)
}

func TestSend_SurvivesInitialHistoryLoad(t *testing.T) {
	ctx := context.Background()
	load, send := newGate(), newGate()
	fc := &fakeClient{
		historyFn: func(context.Context, int64) ([]models.Message, error) {
			load.wait()
			return nil, nil
		},
		sendFn: func(context.Context, int64, string) (string, error) {
			send.wait()
			return "hello", nil
		},
	}
	chat := newChat(fc)

	selected := make(chan error, 1)
	go func() { selected <- chat.Select(ctx, 1) }()
	<-load.started

	sent := make(chan error, 1)
	go func() { sent <- chat.Send(ctx, 1, "hi") }()
	<-send.started

	close(load.release)
	require.NoError(t, <-selected)

	msgs := chat.Messages()
	require.Len(t, msgs, 1, "the pending message outlives the load")
	assert.Equal(t, "hi", msgs[0].Content)
	assert.False(t, msgs[0].Confirmed)

	close(send.release)
	require.NoError(t, <-sent)

	msgs = chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.True(t, msgs[0].Confirmed)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, msgs[0].ID, msgs[1].ReplyTo)
}

func TestSend_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	load, send := newGate(), newGate()
	loads := 0
	fc := &fakeClient{
		historyFn: func(context.Context, int64) ([]models.Message, error) {
			loads++
			if loads == 1 {
				return history("old"), nil
			}
			load.wait()
			return history("old", "answer"), nil
		},
		sendFn: func(context.Context, int64, string) (string, error) {
			send.wait()
			return "hello", nil
		},
	}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	reloaded := make(chan error, 1)
	go func() { reloaded <- chat.Reload(ctx) }()
	<-load.started

	sent := make(chan error, 1)
	go func() { sent <- chat.Send(ctx, 1, "hi") }()
	<-send.started

	close(load.release)
	require.NoError(t, <-reloaded)
	close(send.release)
	require.NoError(t, <-sent)

	msgs := chat.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{"old", "answer", "hi", "hello"}, contents(msgs))
	assert.True(t, msgs[2].Confirmed)
	assert.Equal(t, msgs[2].ID, msgs[3].ReplyTo)
}

func TestRetry_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	send := newGate()
	attempts := 0
	fc := &fakeClient{
		historyFn: func(context.Context, int64) ([]models.Message, error) {
			return history("old"), nil
		},
		sendFn: func(context.Context, int64, string) (string, error) {
			attempts++
			if attempts == 1 {
				return "", client.ErrUnavailable
			}
			send.wait()
			return "hello", nil
		},
	}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))
	require.ErrorIs(t, chat.Send(ctx, 1, "hi"), client.ErrUnavailable)

	require.NoError(t, chat.Reload(ctx))
	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Failed, "a failed message stays retryable after a reload")
	failedID := msgs[1].ID

	retried := make(chan error, 1)
	go func() { retried <- chat.Retry(ctx, failedID) }()
	<-send.started

	require.NoError(t, chat.Reload(ctx))
	close(send.release)
	require.NoError(t, <-retried)

	msgs = chat.Messages()
	assert.Equal(t, []string{"old", "hi", "hello"}, contents(msgs))
	assert.Equal(t, failedID, msgs[1].ID)
	assert.True(t, msgs[1].Confirmed)
	assert.Equal(t, failedID, msgs[2].ReplyTo)
}

func contents(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestRetry_ResendsFailedMessage(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	var texts []string
	fc := &fakeClient{sendFn: func(_ context.Context, _ int64, text string) (string, error) {
		attempts++
		texts = append(texts, text)
		if attempts == 1 {
			return "", client.ErrUnavailable
		}
		return "hello", nil
	}}
	chat := newChat(fc)
	require.NoError(t, chat.Select(ctx, 1))

	require.ErrorIs(t, chat.Send(ctx, 1, "hi"), client.ErrUnavailable)
	failed := chat.Messages()[0]
	require.True(t, failed.Failed)

	require.NoError(t, chat.Retry(ctx, failed.ID))

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, failed.ID, msgs[0].ID, "retry keeps the message in place")
	assert.True(t, msgs[0].Confirmed)
	assert.False(t, msgs[0].Failed)
	assert.Equal(t, failed.ID, msgs[1].ReplyTo)
	assert.Equal(t, []string{"hi", "hi"}, texts)
}

func TestRetry_Errors(t *testing.T) {
	ctx := context.Background()
	chat := newChat(&fakeClient{})
	require.NoError(t, chat.Select(ctx, 1))
	require.NoError(t, chat.Send(ctx, 1, "hi"))

	require.ErrorIs(t, chat.Retry(ctx, "nope"), ErrMessageNotFound)
	require.ErrorIs(t, chat.Retry(ctx, chat.Messages()[0].ID), ErrNotRetryable)
}

func TestListener_SeesOptimisticThenReconciled(t *testing.T) {
	ctx := context.Background()
	var (
		mu     sync.Mutex
		events []Event
	)
	fc := &fakeClient{sendFn: func(context.Context, int64, string) (string, error) { return "hello", nil }}
	chat := newChat(fc, WithListener(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))

	require.NoError(t, chat.Select(ctx, 1))
	require.NoError(t, chat.Send(ctx, 1, "hi"))

	mu.Lock()
	defer mu.Unlock()
	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventReset, EventReset, EventAppended, EventUpdated, EventAppended}, kinds)
	assert.False(t, events[2].Message.Confirmed, "first sighting is the optimistic message")
	assert.True(t, events[3].Message.Confirmed)
	assert.Equal(t, models.RoleAssistant, events[4].Message.Role)
}

func TestListener_MayCallBackIntoService(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{sendFn: func(context.Context, int64, string) (string, error) { return "ok", nil }}
	chat := newChat(fc)

	var seen int
	chat.SetListener(func(Event) { seen = len(chat.Messages()) })

	require.NoError(t, chat.Select(ctx, 1))
	require.NoError(t, chat.Send(ctx, 1, "hi"))
	assert.Equal(t, 2, seen)
}

// Concurrent sends are not serialized; every reply lands after its own
// user message and links back to it.
func TestSend_Concurrent(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{sendFn: func(_ context.Context, _ int64, text string) (string, error) {
		return "re:" + text, nil
	}}
	chat := NewChatService(fc, logging.NewNop())
	require.NoError(t, chat.Select(ctx, 1))

	const n = 20
	var g errgroup.Group
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("q%d", i)
		g.Go(func() error { return chat.Send(ctx, 1, text) })
	}
	require.NoError(t, g.Wait())

	msgs := chat.Messages()
	require.Len(t, msgs, 2*n)

	pos := make(map[string]int, n)
	byID := make(map[string]models.Message, n)
	for i, m := range msgs {
		pos[m.ID] = i
		if m.Role == models.RoleUser {
			byID[m.ID] = m
			assert.True(t, m.Confirmed)
		}
	}
	require.Len(t, byID, n)

	for i, m := range msgs {
		if m.Role != models.RoleAssistant {
			continue
		}
		user, ok := byID[m.ReplyTo]
		require.True(t, ok)
		assert.Equal(t, "re:"+user.Content, m.Content)
		assert.Less(t, pos[user.ID], i)
	}
}

func TestSend_ConcurrentWithSwitch(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{
		historyFn: func(context.Context, int64) ([]models.Message, error) { return nil, nil },
		sendFn: func(_ context.Context, _ int64, text string) (string, error) {
			if text == "m3" {
				return "", errors.New("rejected")
			}
			return "ok", nil
		},
	}
	chat := NewChatService(fc, logging.NewNop())
	require.NoError(t, chat.Select(ctx, 1))

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		text := fmt.Sprintf("m%d", i)
		g.Go(func() error {
			// Sends may land on either side of the switch; both outcomes are fine.
			_ = chat.Send(ctx, 1, text)
			return nil
		})
	}
	g.Go(func() error { return chat.Select(ctx, 2) })
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(2), chat.Selected())
	assert.Empty(t, chat.Messages(), "session 2 log must not receive session 1 traffic")
}

func TestChatState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", ChatState(42).String())
}
