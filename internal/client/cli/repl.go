package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	chatOpen() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	ListChats(ctx context.Context) error
	NewChat(ctx context.Context, name string) error
	OpenChat(ctx context.Context, arg string) error
	History(ctx context.Context) error
	Say(ctx context.Context, text string) error
	Retry(ctx context.Context, arg string) error

	Upload(ctx context.Context, path string) error
	Ask(ctx context.Context, question string) error
}

const (
	guestHelp = "Available commands: register, login, help, exit"
	userHelp  = "Available commands: chats (ls), new [name], open <id>, history, say <text>, " +
		"retry <msg#>, upload <path>, ask <question>, whoami, logout, help, exit\n" +
		"While a chat is open, any other line is sent as a message."
)

// runREPL starts a simple read-eval-print loop for the gophchat CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The rest of the line is the command's
// argument. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           - show available commands
//	  - register       - create an account
//	  - login          - authenticate
//	  - exit | quit    - leave the program
//
//	Logged in:
//	  - chats | ls     - list chat sessions
//	  - new [name]     - start a chat and open it
//	  - open <id>      - open a chat and show its history
//	  - history        - show the open chat again
//	  - say <text>     - send a message (a bare line works too)
//	  - retry <msg#>   - re-send a failed message
//	  - upload <path>  - attach a document
//	  - ask <question> - ask about the attached documents
//	  - whoami         - show the logged in identity
//	  - logout         - log out
//
// Errors returned by command handlers are printed and the loop continues.
// Messages that carry their text are sent in the background and the listener
// prints the replies. The loop waits for outstanding sends before it returns.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	var sends sync.WaitGroup
	defer sends.Wait()

	send := func(text string) error {
		sends.Add(1)
		go func() {
			defer sends.Done()
			if err := a.Say(ctx, text); err != nil {
				printlnFn("Error:", err)
			}
		}()
		return nil
	}

	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("gc %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, send, cmd, arg, line); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, send func(string) error, cmd, arg, line string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn(ctx) {
			printlnFn(userHelp)
		} else {
			printlnFn(guestHelp)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn(ctx) {
		printlnFn("Please login first (type 'help' for commands)")
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "chats", "ls":
		return a.ListChats(ctx)
	case "new":
		return a.NewChat(ctx, arg)
	case "open":
		return a.OpenChat(ctx, arg)
	case "history":
		return a.History(ctx)
	case "say":
		if arg == "" {
			// Say prompts on the same reader.
			return a.Say(ctx, arg)
		}
		return send(arg)
	case "retry":
		return a.Retry(ctx, arg)
	case "upload":
		return a.Upload(ctx, arg)
	case "ask":
		return a.Ask(ctx, arg)
	}

	if a.chatOpen() {
		return send(line)
	}
	printlnFn("Unknown command:", cmd)
	return nil
}
