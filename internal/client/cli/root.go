package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/buildinfo"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/spf13/cobra"
)

// Execute runs the gophchat command line.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Without a subcommand it starts the
// interactive session.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gophchat",
		Short: "Terminal client for the gophchat assistant",
		Long: `gophchat - chat with the assistant from your terminal

Run without arguments for an interactive session, or use one of the
subcommands for scripting.`,
		Version:      buildinfo.String(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				a.Run(ctx)
				return nil
			})
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		simpleCommand("register", "Create an account", (*App).Register),
		simpleCommand("login", "Log in and remember the access token", (*App).Login),
		simpleCommand("logout", "Forget the stored access token", (*App).Logout),
		simpleCommand("whoami", "Show the logged in identity", (*App).WhoAmI),
		simpleCommand("chats", "List chat sessions", (*App).ListChats),
		newChatCommand(),
		historyCommand(),
		sendCommand(),
		uploadCommand(),
		askCommand(),
		versionCommand(),
	)
	return root
}

// withApp loads the configuration from the command's flags, builds an App on
// the command's streams and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := NewApp(ctx, cfg, log, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func simpleCommand(use, short string, fn func(*App, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return fn(a, ctx)
			})
		},
	}
}

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new [name]",
		Short: "Start a new chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.NewChat(ctx, strings.Join(args, " "))
			})
		},
	}
}

func historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <chat id>",
		Short: "Show the messages of a chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				if _, err := a.directoryService.ListSessions(ctx); err != nil {
					a.log.Debug(ctx, "chat list for history title failed", "error", err)
				}
				return a.OpenChat(ctx, args[0])
			})
		},
	}
}

func sendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send <chat id> <text...>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.SendTo(ctx, args[0], strings.Join(args[1:], " "))
			})
		},
	}
}

func uploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Attach a document to your knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Upload(ctx, args[0])
			})
		},
	}
}

func askCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question about your documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Ask(ctx, strings.Join(args, " "))
			})
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
