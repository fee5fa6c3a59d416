package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Detector notifies when the artifact set in the backup directory changes.
// Two strategies exist behind this interface: fixed-interval polling and
// filesystem notification.
type Detector interface {
	// Run blocks until ctx is done, invoking onChange after each detected
	// change.
	Run(ctx context.Context, onChange func()) error
}

// NewDetector creates a change detector for the given strategy.
func NewDetector(strategy string, inv *Inventory, interval time.Duration, logger *zap.Logger) (Detector, error) {
	switch strategy {
	case "", "poll":
		return NewPoller(inv, interval, logger), nil
	case "watch":
		return NewWatcher(inv, logger), nil
	default:
		return nil, fmt.Errorf("unsupported detection strategy: %s", strategy)
	}
}

// Poller detects changes by counting matching files on a fixed interval.
// Simpler than filesystem watching at the cost of up to one interval of
// staleness.
type Poller struct {
	inv      *Inventory
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller creates a poller. A non-positive interval falls back to 5s.
func NewPoller(inv *Inventory, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		inv:      inv,
		interval: interval,
		logger:   logger.Named("poller"),
	}
}

// Run polls until ctx is done. A changed artifact count triggers onChange.
func (p *Poller) Run(ctx context.Context, onChange func()) error {
	lastCount, err := p.inv.Count()
	if err != nil {
		lastCount = -1
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := p.inv.Count()
			if err != nil {
				p.logger.Warn("poll failed", zap.Error(err))
				continue
			}
			if count != lastCount {
				p.logger.Debug("backup count changed",
					zap.Int("from", lastCount),
					zap.Int("to", count))
				lastCount = count
				onChange()
			}
		}
	}
}

// Watcher detects changes through fsnotify events on the backup directory.
type Watcher struct {
	inv    *Inventory
	logger *zap.Logger
}

// NewWatcher creates a notification-based detector.
func NewWatcher(inv *Inventory, logger *zap.Logger) *Watcher {
	return &Watcher{
		inv:    inv,
		logger: logger.Named("watcher"),
	}
}

// Run watches the directory until ctx is done. Only events on artifact
// files trigger onChange; temp files mid-write are ignored.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	if err := w.inv.EnsureDir(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.inv.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.inv.Dir(), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsArtifact(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("backup directory changed",
					zap.String("file", event.Name),
					zap.String("op", event.Op.String()))
				onChange()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}
