package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/client/client"
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
	Upload(ctx context.Context, localPath string) error
	Get(ctx context.Context, path string) error
	Download(ctx context.Context, path, out string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the filekeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF, when ctx is done or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help                   show available commands
//	  - register               create an account
//	  - login                  authenticate
//	  - status                 check the server
//	  - exit | quit            leave the program
//
//	Logged in, additionally:
//	  - upload <file>          upload a local file
//	  - get <path>             print a stored file
//	  - download <path> [out]  save a stored file
//	  - logout                 forget the tokens
//
// Errors returned by command handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("fk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload <file>, get <path>, download <path> [out], status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "upload":
			if len(args) != 1 {
				printlnFn("Usage: upload <file>")
				continue
			}
			cmdErr = a.Upload(ctx, args[0])

		case "get":
			if len(args) != 1 {
				printlnFn("Usage: get <path>")
				continue
			}
			cmdErr = a.Get(ctx, args[0])

		case "download":
			if len(args) < 1 || len(args) > 2 {
				printlnFn("Usage: download <path> [out]")
				continue
			}
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			cmdErr = a.Download(ctx, args[0], out)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describeError(cmdErr))
		}
	}
}

// describeError renders err for the user, preferring the server's own
// message when there is one.
func describeError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return "please log in first"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	default:
		return err.Error()
	}
}
