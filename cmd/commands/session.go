package commands

import (
	"io"
	"log/slog"

	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/session"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

// Globals holds the persistent flags shared by every command
type Globals struct {
	Root     string
	LogLevel string
}

// newTokenizer builds the counter for the configured encoding. Tests
// replace it to stay offline.
var newTokenizer = func(encoding string) utils.Tokenizer {
	return utils.NewTiktokenCounter(encoding)
}

// newClipboard returns the clipboard documents are copied to
var newClipboard = func() utils.Clipboard {
	return utils.SystemClipboard{}
}

// sessionEnv is a ready session plus the resources to release after it
type sessionEnv struct {
	ctx     *cli.CommandContext
	session *session.Session
	router  *session.Router
	logger  *slog.Logger
}

func (e *sessionEnv) Close() error {
	return e.ctx.Close()
}

// NewSession loads the project under g.Root and builds a session copying
// to the system clipboard. The caller closes the returned closer.
func NewSession(g *Globals) (*session.Router, io.Closer, error) {
	env, err := openSession(g, newClipboard())
	if err != nil {
		return nil, nil, err
	}
	return env.router, env, nil
}

func openSession(g *Globals, clip utils.Clipboard) (*sessionEnv, error) {
	cc, err := cli.NewCommandContext(g.Root)
	if err != nil {
		return nil, err
	}

	settings := cc.LoadSettingsWithDefault()
	policy, err := cc.Policy()
	if err != nil {
		return nil, err
	}

	logger, err := cc.Logger(g.LogLevel)
	if err != nil {
		return nil, err
	}

	s, err := session.New(session.Options{
		Policy:    policy,
		Tokenizer: newTokenizer(settings.Tokenizer.Encoding),
		Clipboard: clip,
		Logger:    logger,
		Workers:   settings.Session.Workers,
		Sentinel:  settings.Session.Sentinel,
	})
	if err != nil {
		cc.Close()
		return nil, err
	}

	logger.Info("session started", "root", cc.Root, "encoding", settings.Tokenizer.Encoding)

	return &sessionEnv{
		ctx:     cc,
		session: s,
		router:  session.NewRouter(s, logger),
		logger:  logger,
	}, nil
}
