package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/progrium/media-notes/session"
	"golang.org/x/sync/errgroup"
	"tractor.dev/toolkit-go/engine"
	"tractor.dev/toolkit-go/engine/cli"
)

func main() {
	engine.Run(Main{})
}

type Main struct{}

func (m *Main) InitializeCLI(root *cli.Command) {
	root.Run = func(ctx *cli.Context, args []string) {
		if len(args) == 0 {
			log.Fatal("usage: notes-extract <session.dat>...")
		}
		var g errgroup.Group
		g.SetLimit(runtime.NumCPU())
		for _, path := range args {
			g.Go(func() error {
				out, err := extract(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				log.Printf("wrote %s", out)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Fatal(err)
		}
	}
}

// extract writes the notes of the session saved at path next to it and
// returns the path written.
func extract(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s, err := session.Unmarshal(b)
	if err != nil {
		return "", err
	}
	text, err := s.Extract()
	if err != nil {
		return "", err
	}
	out := strings.TrimSuffix(path, session.Ext) + ".txt"
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return "", err
	}
	return out, nil
}
