package staffcli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// executor is the command surface the REPL drives. App implements it; tests
// provide a stub.
type executor interface {
	List(ctx context.Context, page int) error
	Show(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id, reason string) error
	Member(ctx context.Context, applicantID string) error
	Ping(ctx context.Context) error
}

const helpText = "Available commands: (l)ist [page], show <id>, approve <id>, reject <id> <reason>, member <applicant>, ping, exit"

// runREPL reads commands from scanner until EOF or exit. Handler errors are
// printed and the loop continues.
func runREPL(ctx context.Context, a executor, scanner *bufio.Scanner, out io.Writer) {
	for {
		fmt.Fprint(out, "review> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			fmt.Fprintln(out, helpText)

		case "l", "list":
			page := 1
			if len(args) > 0 {
				if page, err = strconv.Atoi(args[0]); err != nil || page < 1 {
					fmt.Fprintln(out, "Usage: list [page], page starts at 1")
					continue
				}
			}
			err = a.List(ctx, page-1)

		case "show":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: show <id>")
				continue
			}
			err = a.Show(ctx, args[0])

		case "approve":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: approve <id>")
				continue
			}
			err = a.Approve(ctx, args[0])

		case "reject":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: reject <id> <reason>")
				continue
			}
			err = a.Reject(ctx, args[0], strings.Join(args[1:], " "))

		case "member":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: member <applicant>")
				continue
			}
			err = a.Member(ctx, args[0])

		case "ping":
			err = a.Ping(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}
