package main

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/progrium/media-notes/notetaker"
	"github.com/progrium/media-notes/timeline"
	"tractor.dev/toolkit-go/engine"
)

const autosaveName = "autosave"

func main() {
	engine.Run(Main{})
}

type Main struct {
	svc *notetaker.Service
	mu  sync.Mutex
}

func fatal(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func (m *Main) Serve(ctx context.Context) {
	cfg := loadConfig()
	st, err := openStore(ctx, cfg)
	fatal(err)

	svc := &notetaker.Service{
		Addr:  cfg.Addr,
		Taker: notetaker.New(0, cfg.Volume),
		Store: st,
		Poll:  cfg.Poll,
	}
	m.mu.Lock()
	m.svc = svc
	m.mu.Unlock()

	log.Printf("notetaker: %s store", cfg.Store)
	svc.Serve(ctx)
}

func (m *Main) TerminateDaemon(ctx context.Context) error {
	m.mu.Lock()
	svc := m.svc
	m.mu.Unlock()
	if svc == nil {
		return nil
	}
	if c, ok := svc.Store.(interface{ Close() error }); ok {
		defer c.Close()
	}
	name, err := svc.Save(ctx, autosaveName)
	if errors.Is(err, timeline.ErrNothingToSave) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("notetaker: saved %s", name)
	return nil
}
