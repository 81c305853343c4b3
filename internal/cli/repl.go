package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context) error
	Passwd(ctx context.Context) error
	Clear(ctx context.Context) error
	Sync(ctx context.Context) error
	Snapshot(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit", or until
// ctx is done. Handler errors are reported and the loop continues. Command
// handlers share reader for their prompts.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("us> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, delete, passwd, clear, sync, snapshot, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "l", "list", "delete", "passwd", "clear", "sync", "snapshot", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			switch cmd {
			case "l", "list":
				err = a.List(ctx)
			case "delete":
				err = a.Delete(ctx)
			case "passwd":
				err = a.Passwd(ctx)
			case "clear":
				err = a.Clear(ctx)
			case "sync":
				err = a.Sync(ctx)
			case "snapshot":
				err = a.Snapshot(ctx)
			case "logout":
				err = a.Logout(ctx)
			}

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
