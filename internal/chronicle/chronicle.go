// Package chronicle turns tick records into a readable story of the world,
// as Markdown or rendered HTML.
package chronicle

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/aistory/sandboxworld/internal/engine"
)

var renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Build writes one Markdown section per tick: time and weather, each
// character's spoken line, and the events that resolved.
func Build(records []engine.TickRecord) string {
	var b strings.Builder
	b.WriteString("# World Chronicle\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "\n## Tick %d — %s, %s\n\n",
			rec.Tick, rec.Time.Format("Mon Jan 2 15:04"), rec.Weather)

		for _, d := range rec.Decisions {
			line := d.Enrichment.Dialogue
			if line == "" {
				line = "..."
			}
			fmt.Fprintf(&b, "- **%s** (%s): %q\n", d.CharacterID, d.ActionID, line)
		}

		for _, e := range rec.Events {
			if e.Error != "" {
				continue
			}
			fmt.Fprintf(&b, "- *%s*\n", e.Narrative)
		}
	}

	return b.String()
}

// Render converts chronicle Markdown to HTML.
func Render(markdown string) ([]byte, error) {
	var out bytes.Buffer
	if err := renderer.Convert([]byte(markdown), &out); err != nil {
		return nil, fmt.Errorf("render chronicle: %w", err)
	}
	return out.Bytes(), nil
}
