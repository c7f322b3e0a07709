// Command friendmap scrapes a Discord server and maps who talks to whom.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCmd()
	root.SetArgs(normalizeArgs(os.Args[1:]))
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// normalizeArgs accepts the two-letter -tf spelling of --token-file, which
// single-dash shorthands cannot express
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		switch {
		case arg == "-tf":
			arg = "--token-file"
		case strings.HasPrefix(arg, "-tf="):
			arg = "--token-file=" + strings.TrimPrefix(arg, "-tf=")
		}
		out = append(out, arg)
	}
	return out
}
