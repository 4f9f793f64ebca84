package history

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vtstudio/transcript-studio/pkg/file"
	"github.com/vtstudio/transcript-studio/pkg/log"
)

// Purger periodically removes stale history rows and cached audio files.
type Purger struct {
	store    *Store
	cron     *cron.Cron
	ttl      time.Duration
	cacheDir string
}

// NewPurger schedules a purge run on the given cron expression.
func NewPurger(store *Store, cronExpr string, ttl time.Duration, cacheDir string) (*Purger, error) {
	p := &Purger{
		store:    store,
		cron:     cron.New(),
		ttl:      ttl,
		cacheDir: cacheDir,
	}
	if _, err := p.cron.AddFunc(cronExpr, p.Run); err != nil {
		return nil, fmt.Errorf("invalid purge cron expression %q: %w", cronExpr, err)
	}
	return p, nil
}

func (p *Purger) Start() {
	p.cron.Start()
}

func (p *Purger) Stop() {
	p.cron.Stop()
}

// Run performs one purge pass. Also called once at startup.
func (p *Purger) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := p.store.PurgeOlderThan(ctx, p.ttl)
	if err != nil {
		log.Error("History purge failed: %v", err)
	} else if removed > 0 {
		log.Info("Purged %d stale history entries", removed)
	}

	if p.cacheDir == "" {
		return
	}
	stale, err := file.FindOlderThan(p.cacheDir, time.Now().Add(-p.ttl))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("Audio cache scan failed: %v", err)
		}
		return
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove cached audio %s: %v", path, err)
		}
	}
	if len(stale) > 0 {
		log.Info("Removed %d cached audio files", len(stale))
	}
}
