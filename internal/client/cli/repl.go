package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Page(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Watch(ctx context.Context) error
}

const (
	helpGuest  = "Available commands: register, login, help, exit"
	helpMember = "Available commands: whoami, list [search], page <n> [search], show <id>, create, edit <id>, delete <id>, watch, logout, help, exit"
)

// guestCommands may run without a session.
var guestCommands = map[string]bool{
	"help": true, "register": true, "login": true, "exit": true, "quit": true,
}

// runREPL reads one command per line and dispatches it to a. It returns on
// EOF, on "exit" or "quit", or when ctx is cancelled. Handlers report their
// own errors so the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "carctl (%s)> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if !guestCommands[cmd] && !a.isLoggedIn() {
			if _, known := commandNames[cmd]; known {
				fmt.Fprintln(out, "Please login first.")
				continue
			}
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpMember)
			} else {
				fmt.Fprintln(out, helpGuest)
			}
		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.Whoami(ctx)
		case "l", "list":
			_ = a.List(ctx, args)
		case "page":
			_ = a.Page(ctx, args)
		case "show":
			_ = a.Show(ctx, args)
		case "create":
			_ = a.Create(ctx)
		case "edit":
			_ = a.Edit(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "watch":
			_ = a.Watch(ctx)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}

var commandNames = map[string]struct{}{
	"logout": {}, "whoami": {}, "l": {}, "list": {}, "page": {}, "show": {},
	"create": {}, "edit": {}, "delete": {}, "watch": {},
}
