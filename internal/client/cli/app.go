package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/client/client"
	"github.com/dmitrijs2005/vidtube/internal/client/config"
)

type sessionStore interface {
	Load() (client.Session, error)
	Save(client.Session) error
	Clear() error
}

type App struct {
	config *config.Config
	api    client.Client
	store  sessionStore
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	store := client.NewFileSessionStore(c.SessionFile)

	app := &App{config: c, store: store, reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr, app.persistSession)
	if err != nil {
		return nil, err
	}
	app.api = apiClient

	sess, err := store.Load()
	switch {
	case err == nil:
		apiClient.SetSession(sess)
	case !errors.Is(err, client.ErrNoSession):
		return nil, err
	}

	return app, nil
}

// persistSession mirrors the client's token pair into the session file.
func (a *App) persistSession(s client.Session) {
	var err error
	if s.Empty() {
		err = a.store.Clear()
	} else {
		err = a.store.Save(s)
	}
	if err != nil {
		a.printf("warning: session not saved: %v\n", err)
	}
}

func (a *App) timeout() time.Duration {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return a.config.RequestTimeout
}

// Run executes the command named by args and closes the connection.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.api.Close()
	return a.Root(ctx, args)
}
