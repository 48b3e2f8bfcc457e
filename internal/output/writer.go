// Package output persists final scan results. The scanners themselves
// perform no I/O; everything they produce flows through this package.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sentrascan/sentra/internal/engine"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// Options selects the serialization. Comprehensive includes evidence,
// remediation and the full per-control assessment detail.
type Options struct {
	Format        string `json:"format"` // json or csv
	Comprehensive bool   `json:"comprehensive"`
}

// Write serializes result to w in the requested format.
func Write(w io.Writer, result *engine.Result, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", "json":
		return writeJSON(w, result, opts.Comprehensive)
	case "csv":
		return writeCSV(w, result, opts.Comprehensive)
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, opts.Format)
	}
}

// WriteFile serializes result into path, creating or truncating it.
func WriteFile(path string, result *engine.Result, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}
	if err := Write(f, result, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
