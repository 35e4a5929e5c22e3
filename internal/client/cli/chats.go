package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/services"
)

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

// ListChats refreshes the directory and prints it.
func (a *App) ListChats(ctx context.Context) error {
	sessions, err := a.directoryService.ListSessions(ctx)
	if err != nil {
		return err
	}
	a.println(renderSessions(sessions, a.chatService.Selected(), a.now()))
	return nil
}

// NewChat creates a session and opens it.
func (a *App) NewChat(ctx context.Context, name string) error {
	id, err := a.directoryService.CreateSession(ctx, name)
	if id == 0 {
		return err
	}
	if err != nil {
		a.log.Warn(ctx, "chat list refresh after create failed", "session_id", id, "error", err)
	}

	a.printf("Created chat #%d\n", id)
	return a.openChat(ctx, id, true)
}

// OpenChat selects the session given by arg and prints its history.
func (a *App) OpenChat(ctx context.Context, arg string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return usage("open <chat id>")
	}
	return a.openChat(ctx, id, true)
}

func (a *App) openChat(ctx context.Context, id int64, render bool) error {
	if err := a.chatService.Select(ctx, id); err != nil {
		return err
	}
	if render {
		a.printHistory(id)
	}
	return nil
}

// History prints the log of the open chat, reloading it first when the
// previous load failed.
func (a *App) History(ctx context.Context) error {
	id := a.chatService.Selected()
	if id == 0 {
		return services.ErrSessionNotSelected
	}
	if a.chatService.State() == services.StateFailed {
		if err := a.chatService.Reload(ctx); err != nil {
			return err
		}
	}
	a.printHistory(id)
	return nil
}

func (a *App) printHistory(id int64) {
	title := fmt.Sprintf("Chat #%d", id)
	if cs, ok := a.directoryService.Lookup(id); ok {
		title = fmt.Sprintf("Chat #%d: %s", id, cs.Name)
	}
	a.println(titleStyle.Render(title))
	a.println(renderMessages(a.chatService.Messages()))
}

// Say sends text to the open chat. With no text the user is prompted for a
// multi-line message. The reply is printed by the chat listener.
func (a *App) Say(ctx context.Context, text string) error {
	if !a.chatOpen() {
		return services.ErrSessionNotSelected
	}

	if strings.TrimSpace(text) == "" {
		var err error
		text, err = getMultiline(a.reader, "Your message", a.out)
		if err != nil {
			return err
		}
	}

	a.chatService.SetInput(text)
	return a.chatService.SubmitInput(ctx)
}

// SendTo opens the chat silently and sends text to it.
func (a *App) SendTo(ctx context.Context, arg, text string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return usage("send <chat id> <text>")
	}
	if strings.TrimSpace(text) == "" {
		return usage("send <chat id> <text>")
	}
	if err := a.openChat(ctx, id, false); err != nil {
		return err
	}
	return a.Say(ctx, text)
}

// Retry re-sends a failed message, addressed by its 1-based position in the
// printed history.
func (a *App) Retry(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return usage("retry <message #>")
	}

	msgs := a.chatService.Messages()
	if n < 1 || n > len(msgs) {
		return fmt.Errorf("message #%d: %w", n, services.ErrMessageNotFound)
	}
	return a.chatService.Retry(ctx, msgs[n-1].ID)
}

func parseSessionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(arg), "#"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid chat id %d", id)
	}
	return id, nil
}
