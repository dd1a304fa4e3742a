package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/watcher"
)

var bannerStyle = lipgloss.NewStyle().Faint(true)

// watchSource calls redraw after every debounced change to path until ctx is
// done. Redraw failures are reported and watching continues.
func watchSource(ctx context.Context, stdout, stderr io.Writer, path string, redraw func() error) error {
	return watchWith(ctx, stdout, stderr, watcher.DefaultConfig(path), time.Now, redraw)
}

func watchWith(ctx context.Context, stdout, stderr io.Writer, wcfg watcher.Config, now func() time.Time, redraw func() error) error {
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	name := filepath.Base(wcfg.Path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			banner := fmt.Sprintf("── %s changed at %s ──", name, now().Format("15:04:05"))
			_, _ = fmt.Fprintln(stdout, bannerStyle.Render(banner))

			if err := redraw(); err != nil {
				log.ErrorErr(log.CatWatch, "Redraw failed", err, "path", wcfg.Path)
				_, _ = fmt.Fprintf(stderr, "hlspan: %v\n", err)
			}
		}
	}
}
