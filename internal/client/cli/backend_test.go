package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

const (
	testEmail    = "a@x.com"
	testPassword = "pw"
	testToken    = "tok-1"
)

type sessionJSON struct {
	SessionID   int64  `json:"session_id"`
	SessionName string `json:"session_name"`
	CreatedAt   string `json:"created_at"`
}

type messageJSON struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// fakeBackend is an in-memory chat server speaking the backend's HTTP API.
type fakeBackend struct {
	srv *httptest.Server

	mu       sync.Mutex
	sessions []sessionJSON
	messages map[int64][]messageJSON
	uploads  []string
	failChat bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{messages: map[int64][]messageJSON{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", b.register)
	mux.HandleFunc("POST /login", b.login)
	mux.HandleFunc("GET /chats", b.authorized(b.listChats))
	mux.HandleFunc("POST /start_chat", b.authorized(b.startChat))
	mux.HandleFunc("GET /chat_messages/{id}", b.authorized(b.chatMessages))
	mux.HandleFunc("POST /chat", b.authorized(b.chat))
	mux.HandleFunc("POST /upload", b.authorized(b.upload))
	mux.HandleFunc("POST /ask_question", b.authorized(b.ask))

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) URL() string { return b.srv.URL }

func (b *fakeBackend) setFailChat(v bool) {
	b.mu.Lock()
	b.failChat = v
	b.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) register(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"msg": "User registered successfully", "user_id": 1})
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != testEmail || r.PostForm.Get("password") != testPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": testToken, "token_type": "bearer"})
}

func (b *fakeBackend) listChats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]sessionJSON{}, b.sessions...))
}

func (b *fakeBackend) startChat(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := int64(len(b.sessions) + 1)
	b.sessions = append(b.sessions, sessionJSON{
		SessionID:   id,
		SessionName: r.URL.Query().Get("session_name"),
		CreatedAt:   "2025-03-01T10:00:00",
	})
	writeJSON(w, http.StatusOK, map[string]int64{"session_id": id})
}

func (b *fakeBackend) chatMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]messageJSON{}, b.messages[id]...))
}

func (b *fakeBackend) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int64  `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failChat {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "model offline"})
		return
	}

	reply := "echo: " + req.Message
	b.messages[req.SessionID] = append(b.messages[req.SessionID],
		messageJSON{Role: "user", Content: req.Message, Timestamp: "2025-03-01T10:01:00"},
		messageJSON{Role: "assistant", Content: reply, Timestamp: "2025-03-01T10:01:01"},
	)
	writeJSON(w, http.StatusOK, map[string]string{"assistant_response": reply})
}

func (b *fakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	_, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "file is required"})
		return
	}
	b.mu.Lock()
	b.uploads = append(b.uploads, hdr.Filename)
	n := int64(len(b.uploads))
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"msg": "uploaded", "document_id": n})
}

func (b *fakeBackend) ask(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"answer": "42"})
}
