package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"policy-guide/internal/assistant"
	"policy-guide/internal/clipboard"
	"policy-guide/internal/config"
	"policy-guide/internal/export"
	"policy-guide/internal/guidance"
	"policy-guide/internal/history"
	"policy-guide/internal/llm"
	"policy-guide/internal/logger"
	"policy-guide/internal/render"
	"policy-guide/internal/session"
	"policy-guide/internal/storage"
	"policy-guide/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// deps is everything opened from the resolved config.
type deps struct {
	cfg   config.AppConfig
	log   *logger.Logger
	kv    storage.KV
	db    *storage.SQLite
	store *history.Store
}

func (r *deps) Close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.log.Warn("close state db", "err", err)
		}
	}
	_ = r.log.Close()
}

func newRootCmd() *cobra.Command {
	var cfg config.AppConfig

	root := &cobra.Command{
		Use:   "policy-guide",
		Short: "Terminal assistant for K-12 AI policy guidance",
		Long: `policy-guide answers questions about AI policy for K-12 schools and keeps
the last 50 answers in a local history you can revisit, export or clear.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, &cfg)
		},
	}
	root.Version = version
	root.SetVersionTemplate(versionTemplate())
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(newExportCmd(&cfg))
	return root
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("policy-guide %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("policy-guide %s\n", version)
}

func newExportCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the saved history to an HTML file and print its path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			rt, err := open(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			exp, err := export.New(rt.cfg.ExportDir)
			if err != nil {
				return err
			}
			path, err := exp.Export(rt.store.Items())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func open(ctx context.Context, cmd *cobra.Command, cfg *config.AppConfig) (*deps, error) {
	if err := cfg.Resolve(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	log, err := logger.New(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	log.SetDebug(cfg.Debug)
	rt := &deps{cfg: *cfg, log: log}

	db, err := storage.OpenSQLite(cfg.DBPath, cfg.ResetDB)
	if err != nil {
		// history still works for this run, it just is not kept
		log.Error("open state db, history will not persist", "path", cfg.DBPath, "err", err)
		rt.kv = storage.NewMemory()
	} else {
		rt.db = db
		rt.kv = db
	}
	rt.store = history.Open(ctx, rt.kv, history.WithLogger(log.Logger))
	return rt, nil
}

func runTUI(cmd *cobra.Command, cfg *config.AppConfig) error {
	ctx := contextOf(cmd)
	rt, err := open(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	log.Info("starting",
		"version", version,
		"provider", rt.cfg.Provider,
		"model", rt.cfg.Model,
		"history", rt.store.Len(),
		"db", rt.cfg.DBPath,
		"log", log.Path(),
	)
	if rt.db != nil {
		if saved, err := rt.db.UpdatedAt(ctx, history.StorageKey); err != nil {
			log.Warn("read history timestamp", "err", err)
		} else if !saved.IsZero() {
			log.Debug("history last saved", "at", saved.Format(time.RFC3339))
		}
	}

	gen, err := llm.New(ctx, llm.Settings{
		Provider: rt.cfg.Provider,
		Model:    rt.cfg.Model,
		APIKey:   rt.cfg.APIKey,
		BaseURL:  rt.cfg.BaseURL,
	})
	switch {
	case errors.Is(err, llm.ErrUnknownProvider):
		return err
	case err != nil:
		// keep going so saved history stays browsable; every request fails
		log.Error("text generation unavailable", "provider", rt.cfg.Provider, "err", err)
		gen = nil
	}

	guide := guidance.New(guidance.Options{
		Generator: gen,
		Renderer:  render.NewMarkup(),
		History:   rt.store,
		Session:   session.NewController(),
		Logger:    log.Logger,
		Model:     rt.cfg.Model,
	})
	app := assistant.New(assistant.Options{
		History:  rt.store,
		Guide:    guide,
		Starters: rt.cfg.Starters,
		Logger:   log.Logger,
	})

	exp, err := export.New(rt.cfg.ExportDir)
	if err != nil {
		log.Warn("export disabled", "err", err)
	}

	m := ui.NewModel(rt.cfg, ui.Deps{
		App:      app,
		Terminal: render.NewTerminal(rt.cfg.GlamourStyle),
		Exporter: exp,
		Copier:   clipboard.New(),
		Logger:   log.Logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
