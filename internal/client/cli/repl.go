package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Get(ctx context.Context, id string) error
	Create(ctx context.Context) error
	VoteYes(ctx context.Context, id string) error
	VoteNo(ctx context.Context, id string) error
	Update(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, dir string) error
}

// runREPL reads commands line by line and dispatches them to a until EOF,
// "exit" or "quit". Handler errors are printed and the loop continues.
//
//	Always:     help, list, get <id>, exit | quit
//	Logged out: register, login
//	Logged in:  create, yes <id>, no <id>, update <id>, delete <id>, export [dir], logout
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gv %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]
		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

var errLoginRequired = errors.New("please login first")

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	withID := func(usage string, fn func(context.Context, string) error) error {
		if len(args) == 0 {
			printlnFn("Usage:", usage)
			return nil
		}
		return fn(ctx, args[0])
	}
	secured := func(fn func() error) error {
		if !a.isLoggedIn() {
			return errLoginRequired
		}
		return fn()
	}

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn("Available commands: (l)ist, get <id>, create, yes <id>, no <id>, update <id>, delete <id>, export [dir], logout, exit")
		} else {
			printlnFn("Available commands: (l)ist, get <id>, register, login, exit")
		}
		return nil

	case "register":
		return a.Register(ctx)

	case "login":
		return a.Login(ctx)

	case "l", "list":
		return a.List(ctx)

	case "get":
		return withID("get <id>", a.Get)

	case "create":
		return secured(func() error { return a.Create(ctx) })

	case "yes":
		return secured(func() error { return withID("yes <id>", a.VoteYes) })

	case "no":
		return secured(func() error { return withID("no <id>", a.VoteNo) })

	case "update":
		return secured(func() error { return withID("update <id>", a.Update) })

	case "delete":
		return secured(func() error { return withID("delete <id>", a.Delete) })

	case "export":
		return secured(func() error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return a.Export(ctx, dir)
		})

	case "logout":
		return secured(func() error { return a.Logout(ctx) })

	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}
