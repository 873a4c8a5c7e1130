// Package diag carries the per-run diagnostics of a packaging run: cautions and
// errors that are recorded and reported while the run continues, and the fatal
// condition that stops it.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fulmenhq/mappack/pkg/logger"
)

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityCaution
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityCaution:
		return "caution"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (s *Severity) UnmarshalText(b []byte) error {
	for _, v := range []Severity{SeverityInfo, SeverityCaution, SeverityError, SeverityFatal} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Kind classifies where a diagnostic came from.
type Kind string

const (
	KindMissingInput   Kind = "missing-input"
	KindMissingRoot    Kind = "missing-gameinfo"
	KindMissingInclude Kind = "missing-include"
	KindMissingExclude Kind = "missing-exclude"
	KindMissingUtility Kind = "missing-utility"
	KindUnresolved     Kind = "unresolved-asset"
	KindParse          Kind = "parse"
	KindExternalTool   Kind = "external-tool"
	KindInternal       Kind = "internal"
)

// Diagnostic is a single attributable message: which file, which path.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Path)
}

// ErrMissingInput marks the map container file being absent.
var ErrMissingInput = errors.New("missing input")

// FatalError stops a run. It wraps the underlying cause.
type FatalError struct {
	Diagnostic Diagnostic
	Err        error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Diagnostic.Message, e.Err)
	}
	return e.Diagnostic.Message
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal builds a FatalError for kind/path.
func Fatal(kind Kind, path string, err error, format string, args ...any) *FatalError {
	return &FatalError{
		Diagnostic: Diagnostic{Severity: SeverityFatal, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)},
		Err:        err,
	}
}

// Collector accumulates diagnostics for one run and logs each as it arrives.
// It is safe for concurrent use, though a run normally adds from one goroutine.
type Collector struct {
	mu    sync.Mutex
	log   *logger.Logger
	items []Diagnostic
}

// NewCollector returns a collector logging through log (nil means the default logger).
func NewCollector(log *logger.Logger) *Collector {
	if log == nil {
		log = logger.Default()
	}
	return &Collector{log: log}
}

// Add records d and logs it at the matching level.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()

	fields := []logger.Field{logger.String("kind", string(d.Kind))}
	if d.Path != "" {
		fields = append(fields, logger.String("path", d.Path))
	}
	switch d.Severity {
	case SeverityInfo:
		c.log.Debug(d.Message, fields...)
	case SeverityCaution:
		c.log.Warn(d.Message, fields...)
	default:
		c.log.Error(d.Message, fields...)
	}
}

// Caution records a recoverable warning.
func (c *Collector) Caution(kind Kind, path, format string, args ...any) {
	c.Add(Diagnostic{Severity: SeverityCaution, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Error records a non-fatal error.
func (c *Collector) Error(kind Kind, path, format string, args ...any) {
	c.Add(Diagnostic{Severity: SeverityError, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Info records an informational note (logged at debug).
func (c *Collector) Info(kind Kind, path, format string, args ...any) {
	c.Add(Diagnostic{Severity: SeverityInfo, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Items returns a copy of everything recorded so far.
func (c *Collector) Items() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.items...)
}

// Count returns how many diagnostics have at least severity min.
func (c *Collector) Count(min Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Severity >= min {
			n++
		}
	}
	return n
}

// Max returns the highest severity recorded, or SeverityInfo when empty.
func (c *Collector) Max() Severity {
	return MaxSeverity(c.Items())
}

// Group is a set of identical diagnostics collapsed for the end-of-run summary.
type Group struct {
	Count      int
	Diagnostic Diagnostic
}

// Summary collapses the recorded diagnostics; see Summarize.
func (c *Collector) Summary() []Group {
	return Summarize(c.Items())
}

// Summarize collapses diagnostics with the same severity, kind, message and
// path, highest severity first. Info diagnostics are left out.
func Summarize(items []Diagnostic) []Group {
	index := map[string]int{}
	var groups []Group
	for _, d := range items {
		if d.Severity == SeverityInfo {
			continue
		}
		key := fmt.Sprintf("%d|%s|%s|%s", d.Severity, d.Kind, d.Message, d.Path)
		if i, ok := index[key]; ok {
			groups[i].Count++
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Count: 1, Diagnostic: d})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Diagnostic.Severity > groups[j].Diagnostic.Severity
	})
	return groups
}

// MaxSeverity returns the highest severity in items, or SeverityInfo.
func MaxSeverity(items []Diagnostic) Severity {
	top := SeverityInfo
	for _, d := range items {
		if d.Severity > top {
			top = d.Severity
		}
	}
	return top
}

// FormatSummary renders Summary as "Nx: severity: message (path)" lines.
func FormatSummary(groups []Group) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%dx: %s\n", g.Count, g.Diagnostic.String())
	}
	return b.String()
}
