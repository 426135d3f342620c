package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/config"
	"github.com/five82/basecamp/internal/feed"
	"github.com/five82/basecamp/internal/interact"
	"github.com/five82/basecamp/internal/prefs"
	"github.com/five82/basecamp/internal/session"
	"github.com/five82/basecamp/internal/state"
	"github.com/five82/basecamp/internal/ui"
)

// Options configure the basecamp application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/basecamp/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
	Token      string // overrides the config token and token file
}

// Services is the wired object graph shared by the poller and the UI.
type Services struct {
	Sessions     *session.Holder
	Client       *api.Client
	Interactions *interact.Store
	Threads      *comments.Threads
	Feed         *feed.Aggregator
	Store        *state.Store
}

// Wire builds every service from cfg. A token that fails to decode is
// logged and the client starts anonymous.
func Wire(cfg config.Config, token string) (*Services, error) {
	holder := &session.Holder{}
	if token = strings.TrimSpace(token); token != "" {
		if _, err := holder.Login(token); err != nil {
			log.Printf("ignoring saved token: %v", err)
		}
	}

	client, err := api.NewClient(cfg.APIURL, holder)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	interactions := interact.NewStore(holder, client, client)
	threads := comments.NewThreads(holder, client)
	return &Services{
		Sessions:     holder,
		Client:       client,
		Interactions: interactions,
		Threads:      threads,
		Feed:         feed.NewAggregator(client, holder, interactions, threads, cfg.CacheTTL),
		Store:        &state.Store{},
	}, nil
}

// Run boots the basecamp TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	logFile, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	token, err := resolveToken(opts.Token, cfg)
	if err != nil {
		return err
	}

	svc, err := Wire(cfg, token)
	if err != nil {
		return err
	}

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	StartPoller(ctx, svc.Store, svc.Feed, interval)

	uiOpts := ui.Options{
		Context:      ctx,
		Sessions:     svc.Sessions,
		Interactions: svc.Interactions,
		Threads:      svc.Threads,
		Feed:         svc.Feed,
		Store:        svc.Store,
		Config:       &cfg,
		ThemeName:    userPrefs.Theme,
		StartView:    userPrefs.StartView,
		PrefsPath:    opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}

// resolveToken picks the flag token, then BASECAMP_TOKEN, then the token file.
func resolveToken(flagToken string, cfg config.Config) (string, error) {
	if t := strings.TrimSpace(flagToken); t != "" {
		return t, nil
	}
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	token, err := session.ReadTokenFile(cfg.TokenFile)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return token, nil
}

// openLog redirects the standard logger to path while the TUI owns the
// terminal.
func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "basecamp")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
