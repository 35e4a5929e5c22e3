package services

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

// fakeClient implements client.Client with per-method hooks. A nil hook
// returns zero values.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	loginFn    func(ctx context.Context, email string, password []byte) (string, error)
	registerFn func(ctx context.Context, email string, password []byte) (models.Registration, error)
	listFn     func(ctx context.Context) ([]models.ChatSession, error)
	startFn    func(ctx context.Context, name string) (int64, error)
	historyFn  func(ctx context.Context, sessionID int64) ([]models.Message, error)
	sendFn     func(ctx context.Context, sessionID int64, text string) (string, error)
	uploadFn   func(ctx context.Context, name string, r io.Reader) (int64, error)
	askFn      func(ctx context.Context, question string) (string, error)
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Login(ctx context.Context, email string, password []byte) (string, error) {
	f.record("login")
	if f.loginFn == nil {
		return "", nil
	}
	return f.loginFn(ctx, email, password)
}

func (f *fakeClient) Register(ctx context.Context, email string, password []byte) (models.Registration, error) {
	f.record("register")
	if f.registerFn == nil {
		return models.Registration{}, nil
	}
	return f.registerFn(ctx, email, password)
}

func (f *fakeClient) ListChats(ctx context.Context) ([]models.ChatSession, error) {
	f.record("chats")
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeClient) StartChat(ctx context.Context, name string) (int64, error) {
	f.record("start_chat")
	if f.startFn == nil {
		return 0, nil
	}
	return f.startFn(ctx, name)
}

func (f *fakeClient) ChatMessages(ctx context.Context, sessionID int64) ([]models.Message, error) {
	f.record("chat_messages")
	if f.historyFn == nil {
		return nil, nil
	}
	return f.historyFn(ctx, sessionID)
}

func (f *fakeClient) SendMessage(ctx context.Context, sessionID int64, text string) (string, error) {
	f.record("chat")
	if f.sendFn == nil {
		return "", nil
	}
	return f.sendFn(ctx, sessionID, text)
}

func (f *fakeClient) UploadDocument(ctx context.Context, name string, r io.Reader) (int64, error) {
	f.record("upload")
	if f.uploadFn == nil {
		return 0, nil
	}
	return f.uploadFn(ctx, name, r)
}

func (f *fakeClient) AskQuestion(ctx context.Context, question string) (string, error) {
	f.record("ask_question")
	if f.askFn == nil {
		return "", nil
	}
	return f.askFn(ctx, question)
}
