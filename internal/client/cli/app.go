package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/wastewatch/internal/client/client"
	"github.com/dmitrijs2005/wastewatch/internal/client/config"
)

type App struct {
	config  *config.Config
	api     client.Client
	session *client.Session
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) *App {
	return newApp(c, client.NewHTTPClient(c.ServerURL, c.RequestTimeout), os.Stdin, os.Stdout)
}

func newApp(c *config.Config, api client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if a.session == nil {
		return ""
	}
	return "(" + a.session.User.Email + ")"
}

// Run greets the user, reports server reachability and enters the REPL.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to wastewatch CLI (type 'help' for commands)")
	if err := a.api.Ping(ctx); err != nil {
		printlnFn("Warning: server at", a.config.ServerURL, "is not reachable:", err)
	}
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}
