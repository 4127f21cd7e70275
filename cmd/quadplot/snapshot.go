package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/quadplot/internal/config"
	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/render"
	"github.com/recera/quadplot/pkg/session"
)

// snapshotRequest describes one headless plot.
type snapshotRequest struct {
	Endpoint    string
	Number      string
	Involutions string
	Width       int
	Height      int
	BaseScale   float64
	Theme       render.Theme
	Timeout     time.Duration
}

func newSnapshotCommand(opts *rootOptions) *cobra.Command {
	var number, involutions, out, endpoint string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Calculate once and write the plot to a PNG or PDF file",
		Long: `Connects to a peer, sends one calculate request, waits for the equation and
all of its points and writes the resulting plot. The format follows the
extension of --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.Client.Endpoint = endpoint
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}

			req := snapshotRequest{
				Endpoint:    cfg.Client.Endpoint,
				Number:      number,
				Involutions: involutions,
				Width:       cfg.Canvas.Width,
				Height:      cfg.Canvas.Height,
				BaseScale:   cfg.Canvas.BaseScale,
				Theme:       loadTheme(cfg.Theme, logger),
				Timeout:     timeout,
			}
			s, err := takeSnapshot(cmd.Context(), req, logger)
			if err != nil {
				return err
			}
			if err := writeSnapshot(out, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d dots)\n", out, len(s.Dots()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&number, "number", "n", "4", "Number the curve is derived from")
	cmd.Flags().StringVarP(&involutions, "involutions", "k", "3", "Number of sample points")
	cmd.Flags().StringVarP(&out, "out", "o", "quadplot.png", "Output file (.png or .pdf)")
	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "ws://localhost:4000/", "Websocket endpoint of the peer")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the reply")

	return cmd
}

// takeSnapshot runs one calculate round trip and returns the session holding
// the result. Client callbacks are funneled onto this goroutine so the session
// is only touched here.
func takeSnapshot(ctx context.Context, req snapshotRequest, logger *slog.Logger) (*session.Session, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	client := live.NewClient(req.Endpoint, logger)
	defer client.Close()

	s := session.New(session.Options{
		Width:     req.Width,
		Height:    req.Height,
		BaseScale: req.BaseScale,
		Theme:     &req.Theme,
		Logger:    logger,
	}, client)

	events := make(chan func(), 256)
	done := make(chan struct{})
	defer close(done)
	post := func(ev func()) {
		select {
		case events <- ev:
		case <-done:
		}
	}

	gotEquation := false
	client.OnState(func(st live.ConnectionState) {
		post(func() { s.SetConnectionState(st) })
	})
	client.OnMessage(func(m live.Message) {
		post(func() {
			if _, ok := m.(live.Equation); ok {
				gotEquation = true
			}
			s.Apply(m)
		})
	})

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	want := int(live.ParseInt(req.Involutions))
	if want < 0 {
		want = 0
	}
	sent := false
	for {
		if !sent && s.ConnectionState() == live.Connected {
			if !s.Calculate(req.Number, req.Involutions) {
				return nil, errors.New("request not sent: number and involutions must be non-zero numbers")
			}
			sent = true
		}
		if sent && gotEquation && len(s.Dots()) >= want {
			return s, nil
		}
		if status := s.Status(); strings.HasPrefix(status, session.StatusError+": ") {
			return nil, errors.New(status)
		}
		if st := s.ConnectionState(); st == live.Disconnected || st == live.Errored {
			return nil, fmt.Errorf("connection lost after %d of %d dots", len(s.Dots()), want)
		}

		select {
		case ev := <-events:
			ev()
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for reply: %w", ctx.Err())
		}
	}
}

// writeSnapshot renders the session frame to path as PNG, or PDF when the
// extension is .pdf.
func writeSnapshot(path string, s *session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w, h := s.Size()
	cmds := s.Frame()
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		err = render.WritePDF(f, cmds, w, h)
	} else {
		err = render.WritePNG(f, cmds, w, h)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
