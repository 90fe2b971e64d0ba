package cli

import (
	"context"
	"fmt"
	"strings"
)

var valueFlags = map[string]bool{"-a": true, "-s": true, "-t": true, "-c": true, "-config": true, "--config": true}

// Positional drops the flags understood by the config loader (and their
// values) and returns what is left.
func Positional(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if name, _, ok := strings.Cut(arg, "="); ok && valueFlags[name] {
				continue
			}
			if valueFlags[arg] && i+1 < len(args) {
				i++
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) usage() {
	a.printf("Usage: vidtube [-a addr] [-s session-file] [-t seconds] <command>\n")
	a.printf("Available commands: login, refresh, logout, me, passwd\n")
}

// Root dispatches one command.
func (a *App) Root(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	cmd := args[0]

	switch cmd {
	case "help":
		a.usage()
		return nil
	case "login":
		return a.Login(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "logout":
		return a.Logout(ctx)
	case "me":
		return a.Me(ctx)
	case "passwd":
		return a.ChangePassword(ctx)
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
