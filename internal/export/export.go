// Package export writes the consolidated network as a tab-separated
// table. The write is all-or-nothing: rows go to a temp file in the
// target directory which is renamed into place only after a successful
// flush, so a failed invocation never leaves a partial table behind.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Imperialdramon/irace-stn/internal/stn"
)

var baseHeader = []string{
	"Run",
	"Fitness1", "Solution1", "Elite1", "Type1", "Iteration1",
	"Fitness2", "Solution2", "Elite2", "Type2", "Iteration2",
}

// Header returns the column names for a result, extended with the
// original-status and Path columns when either original mode is on.
func Header(res *stn.Result) []string {
	header := append([]string(nil), baseHeader...)
	if res.Options.OriginalElite {
		header = append(header, "Original_Elite1", "Original_Elite2")
	}
	if res.Options.OriginalType {
		header = append(header, "Original_Type1", "Original_Type2")
	}
	if res.Options.OriginalElite || res.Options.OriginalType {
		header = append(header, "Path")
	}
	return header
}

// Row renders one edge as table fields, in header order.
func Row(res *stn.Result, edge stn.Edge) []string {
	sig := res.Options.Significance
	fields := []string{
		edge.Run,
		stn.FormatQuality(edge.From.Fitness, sig),
		edge.From.Code,
		edge.From.Elite.String(),
		edge.From.Type.String(),
		fmt.Sprintf("%d", edge.From.Iteration),
		stn.FormatQuality(edge.To.Fitness, sig),
		edge.To.Code,
		edge.To.Elite.String(),
		edge.To.Type.String(),
		fmt.Sprintf("%d", edge.To.Iteration),
	}
	if res.Options.OriginalElite {
		fields = append(fields, boolField(edge.From.ConfigElite == stn.Elite), boolField(edge.To.ConfigElite == stn.Elite))
	}
	if res.Options.OriginalType {
		fields = append(fields, edge.From.ConfigType.String(), edge.To.ConfigType.String())
	}
	if res.Options.OriginalElite || res.Options.OriginalType {
		// A step is on a surviving search path when its destination
		// configuration was elite in its own iteration.
		fields = append(fields, boolField(edge.To.ConfigElite == stn.Elite))
	}
	return fields
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Write renders the whole table to path atomically.
func Write(path string, res *stn.Result) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // no-op after a successful rename
	}()

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(strings.Join(Header(res), "\t") + "\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, edge := range res.Edges {
		if _, err := w.WriteString(strings.Join(Row(res, edge), "\t") + "\n"); err != nil {
			return fmt.Errorf("writing edge row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publishing output: %w", err)
	}
	return nil
}
