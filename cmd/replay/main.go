// Command replay reads a tick journal and prints the world chronicle as
// Markdown, or HTML with -html.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aistory/sandboxworld/internal/chronicle"
	"github.com/aistory/sandboxworld/internal/engine"
	"github.com/aistory/sandboxworld/internal/journal"
)

func main() {
	journalPath := flag.String("journal", "data/journal.zst", "path to tick journal")
	asHTML := flag.Bool("html", false, "render HTML instead of Markdown")
	flag.Parse()

	if err := run(*journalPath, *asHTML); err != nil {
		slog.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, asHTML bool) error {
	r, err := journal.NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var records []engine.TickRecord
	for {
		var rec engine.TickRecord
		if err := r.Next(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		records = append(records, rec)
	}

	md := chronicle.Build(records)
	if !asHTML {
		fmt.Print(md)
		return nil
	}

	html, err := chronicle.Render(md)
	if err != nil {
		return err
	}
	os.Stdout.Write(html)
	return nil
}
