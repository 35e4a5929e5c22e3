package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

// Client is the backend contract used by the services layer.
type Client interface {
	Register(ctx context.Context, email string, password []byte) (models.Registration, error)
	// Login exchanges credentials for an access token. It does not store it.
	Login(ctx context.Context, email string, password []byte) (string, error)
	ListChats(ctx context.Context) ([]models.ChatSession, error)
	StartChat(ctx context.Context, name string) (int64, error)
	ChatMessages(ctx context.Context, sessionID int64) ([]models.Message, error)
	// SendMessage returns the assistant reply, which may be empty.
	SendMessage(ctx context.Context, sessionID int64, text string) (string, error)
	UploadDocument(ctx context.Context, name string, r io.Reader) (int64, error)
	AskQuestion(ctx context.Context, question string) (string, error)
}
