package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/recera/quadplot/internal/config"
	"github.com/recera/quadplot/internal/discovery"
	"github.com/recera/quadplot/internal/themewatch"
	"github.com/recera/quadplot/internal/tui"
	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/render"
	"github.com/recera/quadplot/pkg/session"
)

func newPlotCommand(opts *rootOptions) *cobra.Command {
	var endpoint string
	var discover bool

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Open the interactive plot",
		Long: `Opens the terminal plot and connects to a peer. Click to place a dot on the
curve, drag to select dots, scroll to zoom and use the arrow keys to pan.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.Client.Endpoint = endpoint
			}
			if cmd.Flags().Changed("discover") {
				cfg.Client.Discover = discover
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPlot(cfg)
		},
	}

	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "ws://localhost:4000/", "Websocket endpoint of the peer")
	cmd.Flags().BoolVar(&discover, "discover", false, "Find the peer over mDNS")

	return cmd
}

func runPlot(cfg *config.Config) error {
	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger, err := config.NewLogger(cfg.Log, logFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpoint := resolveEndpoint(ctx, cfg.Client, logger)
	theme := loadTheme(cfg.Theme, logger)

	canvas := render.NewCellCanvas(cfg.Canvas.Cols, cfg.Canvas.Rows, cfg.Canvas.CellWidth, cfg.Canvas.CellHeight)
	width, height := canvas.PixelSize()

	client := live.NewClient(endpoint, logger)
	s := session.New(session.Options{
		Width:     width,
		Height:    height,
		BaseScale: cfg.Canvas.BaseScale,
		Theme:     &theme,
		Logger:    logger,
	}, client)

	p := tea.NewProgram(tui.NewModel(s, canvas), tea.WithAltScreen(), tea.WithMouseCellMotion())
	tui.Bind(p, client)

	if cfg.Theme != "" {
		w, err := themewatch.New(cfg.Theme, func(t render.Theme) { p.Send(tui.ThemeMsg{Theme: t}) }, logger)
		if err != nil {
			logger.Warn("theme reload disabled", "error", err)
		} else {
			go w.Run(ctx)
		}
	}

	// Connection failures surface through the status line.
	go func() {
		if err := client.Connect(ctx); err != nil {
			logger.Warn("connect failed", "error", err)
		}
	}()

	_, err = p.Run()
	cancel()
	client.Close()
	return err
}

// resolveEndpoint returns the first discovered peer when discovery is on and
// finds one, otherwise the configured endpoint.
func resolveEndpoint(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) string {
	if !cfg.Discover {
		return cfg.Endpoint
	}
	peers, err := discovery.Lookup(ctx, cfg.DiscoverTimeout)
	if err != nil {
		logger.Warn("discovery failed", "error", err)
	}
	if len(peers) == 0 {
		logger.Info("no peer discovered, using configured endpoint", "endpoint", cfg.Endpoint)
		return cfg.Endpoint
	}
	logger.Info("discovered peer", "instance", peers[0].Instance, "endpoint", peers[0].Endpoint())
	return peers[0].Endpoint()
}

func loadTheme(path string, logger *slog.Logger) render.Theme {
	if path == "" {
		return render.DefaultTheme()
	}
	theme, err := render.LoadTheme(path)
	if err != nil {
		logger.Warn("using default theme", "error", err)
	}
	return theme
}
