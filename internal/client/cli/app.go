package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
	"github.com/dmitrijs2005/gophchat/internal/client/credentials"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophchat/internal/client/services"
	"github.com/dmitrijs2005/gophchat/internal/client/storage"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

// App ties the client services to a terminal. One App serves either a
// single one-shot command or a whole REPL session.
type App struct {
	config *config.Config
	db     *sql.DB
	log    logging.Logger

	authService      services.AuthService
	directoryService services.DirectoryService
	chatService      services.ChatService
	documentService  services.DocumentService

	reader *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex
	now    func() time.Time
}

// NewApp opens local storage and builds the service graph described by cfg.
// in and out are the terminal streams; logs go to log.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	db, err := storage.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", cfg.DatabasePath, "error", err)
		return nil, err
	}

	store := credentials.NewStore(metadata.NewSQLiteRepository(db))

	apiClient, err := client.NewHTTPClient(cfg.ServerURL, store,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithModel(cfg.Model),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(cfg, log,
		services.NewAuthService(apiClient, store, log),
		services.NewDirectoryService(apiClient, log),
		services.NewChatService(apiClient, log),
		services.NewDocumentService(apiClient, log),
		in, out,
	)
	a.db = db
	return a, nil
}

func newApp(cfg *config.Config, log logging.Logger,
	as services.AuthService, ds services.DirectoryService, cs services.ChatService, docs services.DocumentService,
	in io.Reader, out io.Writer,
) *App {
	a := &App{
		config:           cfg,
		log:              log,
		authService:      as,
		directoryService: ds,
		chatService:      cs,
		documentService:  docs,
		reader:           bufio.NewReader(in),
		out:              out,
		now:              time.Now,
	}
	cs.SetListener(a.onChatEvent)
	return a
}

// Close releases local storage.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run starts the interactive session and blocks until the user leaves or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) {
	a.println(titleStyle.Render("Welcome to gophchat") + " (type 'help' for commands)")

	if a.isLoggedIn(ctx) {
		if _, err := a.directoryService.ListSessions(ctx); err != nil {
			a.log.Warn(ctx, "initial chat list failed", "error", err)
		}
	}

	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.authService.IsAuthenticated(ctx)
}

func (a *App) chatOpen() bool {
	return a.chatService.Selected() != 0
}

// getStatus is the prompt decoration: who is logged in and which chat is open.
func (a *App) getStatus(ctx context.Context) string {
	if !a.isLoggedIn(ctx) {
		return "(guest)"
	}

	s := "logged in"
	if id, err := a.authService.Identity(ctx); err == nil && id.Subject != "" {
		s = id.Subject
	}

	if sel := a.chatService.Selected(); sel != 0 {
		name := fmt.Sprintf("#%d", sel)
		if cs, ok := a.directoryService.Lookup(sel); ok {
			name = fmt.Sprintf("#%d %s", sel, cs.Name)
		}
		s += " " + name
	}
	return fmt.Sprintf("(%s)", s)
}

// onChatEvent prints replies and failures as the synchronizer reports them.
// The user's own lines are not echoed.
func (a *App) onChatEvent(e services.Event) {
	switch e.Kind {
	case services.EventAppended:
		if e.Message.Role != models.RoleAssistant {
			return
		}
	case services.EventUpdated:
		if !e.Message.Failed {
			return
		}
	default:
		return
	}

	n := a.position(e.Message.ID)
	if n == 0 {
		return
	}
	a.println(renderMessage(n, e.Message))
}

// position returns the 1-based index of the message in the current log, or 0.
func (a *App) position(id string) int {
	for i, m := range a.chatService.Messages() {
		if m.ID == id {
			return i + 1
		}
	}
	return 0
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
