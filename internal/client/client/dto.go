package client

import (
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Msg    string `json:"msg"`
	UserID int64  `json:"user_id"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type chatSessionDTO struct {
	SessionID   int64      `json:"session_id"`
	SessionName string     `json:"session_name"`
	CreatedAt   timex.Time `json:"created_at"`
}

func (d chatSessionDTO) model() models.ChatSession {
	return models.ChatSession{ID: d.SessionID, Name: d.SessionName, CreatedAt: d.CreatedAt.Time}
}

type startChatRequest struct {
	SessionName string `json:"session_name"`
}

type startChatResponse struct {
	SessionID int64 `json:"session_id"`
}

type messageDTO struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp timex.Time `json:"timestamp"`
}

func (d messageDTO) model() models.Message {
	return models.Message{
		Role:      models.Role(d.Role),
		Content:   d.Content,
		Timestamp: d.Timestamp.Time,
		Confirmed: true,
	}
}

type chatRequest struct {
	SessionID int64  `json:"session_id"`
	Message   string `json:"message"`
	ModelName string `json:"model_name,omitempty"`
}

type chatResponse struct {
	AssistantResponse string `json:"assistant_response"`
}

type uploadResponse struct {
	Msg        string `json:"msg"`
	DocumentID int64  `json:"document_id"`
}

type askRequest struct {
	Question  string `json:"question"`
	ModelName string `json:"model_name,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}
