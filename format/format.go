// Package format renders the transcript store as one plain text document.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"ewintr.nl/ytscript/model"
	"ewintr.nl/ytscript/storage"
)

// Separator closes every block.
var Separator = "\n" + strings.Repeat("=", 80) + "\n\n"

func Block(r model.TranscriptRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", orDefault(r.Title, model.PlaceholderTitle))
	fmt.Fprintf(&b, "### Description\n%s\n", orDefault(r.Description, model.PlaceholderDescription))
	fmt.Fprintf(&b, "### Date\n%s\n", orDefault(r.Date, model.PlaceholderDate))
	fmt.Fprintf(&b, "### Script\n%s\n", orDefault(r.Script.String(), model.PlaceholderScript))
	b.WriteString(Separator)

	return b.String()
}

// Convert writes one block per readable line of the store in r to w and
// returns the number of blocks. Lines that do not decode are logged and
// skipped.
func Convert(r io.Reader, w io.Writer, logger *slog.Logger) (int, error) {
	count := 0
	err := storage.ScanLines(r, func(lineNo int, line []byte) error {
		var record model.TranscriptRecord
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn("skipping malformed line", slog.Int("line", lineNo), slog.String("error", err.Error()))
			return nil
		}
		if _, err := io.WriteString(w, Block(record)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
