package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/sync"
)

// Run shows the live task list until the user quits. The poller is started
// here and stopped on exit.
func Run(ctx context.Context, cache *sync.Cache, poller *sync.Poller, viewer Viewer) error {
	refreshCh := make(chan struct{}, 1)
	cache.SetOnChange(func(*model.Document, string) {
		// Non-blocking, one pending refresh is enough
		select {
		case refreshCh <- struct{}{}:
		default:
		}
	})
	defer cache.SetOnChange(nil)

	poller.Start(ctx)
	defer poller.Stop()

	logger.Info("Launching TUI", logger.F("admin", viewer.Admin), logger.F("user_id", viewer.UserID))
	p := tea.NewProgram(NewModel(cache, viewer, refreshCh), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err.Error()))
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("TUI exited normally")
	return nil
}
