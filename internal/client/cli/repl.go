package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printFn and printlnFn are test seams for user-facing output. In tests,
// replace them with stubs.
var (
	printFn   = fmt.Print
	printlnFn = fmt.Println
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Profile(ctx context.Context) error
	Logout(ctx context.Context) error
	ListEvents(ctx context.Context, which string) error
	Search(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Stats(ctx context.Context, id string) error
	Participants(ctx context.Context, id string) error
	Create(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Join(ctx context.Context, id string) error
	Leave(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id, path string) error
}

const (
	helpGuest = "Available commands: register, verify, login, forgot, reset, (l)ist, upcoming, past, search, show <id>, stats <id>, participants <id>, exit"
	helpUser  = "Available commands: (l)ist, upcoming, past, search, show <id>, stats <id>, participants <id>, create, edit <id>, delete <id>, join <id>, leave <id>, image <id> <file>, profile, verify, logout, exit"
)

// commands that need a logged-in user
var authOnly = map[string]bool{
	"create": true, "edit": true, "delete": true, "join": true,
	"leave": true, "image": true, "profile": true, "logout": true,
}

// runREPL starts a simple read–eval–print loop for the gophevents CLI.
//
// It reads a line from reader, parses the first token as the command and
// the rest as arguments, and dispatches to methods on 'a'. The loop exits
// on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn). Commands that change
// data need a login; 'help' lists what is available in the current state.
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printFn(fmt.Sprintf("gophevents %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}

		cmd, args := parts[0], parts[1:]

		if authOnly[cmd] && !a.isLoggedIn() {
			printlnFn("Please log in first")
		} else if quit := dispatch(ctx, a, cmd, args); quit {
			return
		}

		if readErr != nil {
			return
		}
	}
}

// dispatch runs one command and reports whether the REPL should stop.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	var err error

	// withID runs fn with the first argument, or prints usage.
	withID := func(fn func(context.Context, string) error) {
		if len(args) < 1 {
			printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
			return
		}
		err = fn(ctx, args[0])
	}

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpUser)
		} else {
			printlnFn(helpGuest)
		}

	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "verify":
		err = a.Verify(ctx)
	case "forgot":
		err = a.ForgotPassword(ctx)
	case "reset":
		err = a.ResetPassword(ctx)
	case "profile":
		err = a.Profile(ctx)
	case "logout":
		err = a.Logout(ctx)

	case "l", "list", "events":
		err = a.ListEvents(ctx, listAll)
	case "upcoming":
		err = a.ListEvents(ctx, listUpcoming)
	case "past":
		err = a.ListEvents(ctx, listPast)
	case "search":
		err = a.Search(ctx)
	case "show":
		withID(a.Show)
	case "stats":
		withID(a.Stats)
	case "participants":
		withID(a.Participants)

	case "create":
		err = a.Create(ctx)
	case "edit":
		withID(a.Edit)
	case "delete":
		withID(a.Delete)
	case "join":
		withID(a.Join)
	case "leave":
		withID(a.Leave)
	case "image":
		if len(args) < 2 {
			printlnFn("Usage: image <id> <file>")
			break
		}
		err = a.UploadImage(ctx, args[0], args[1])

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		printlnFn("Error:", describeError(err))
	}
	return false
}
