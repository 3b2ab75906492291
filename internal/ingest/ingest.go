// Package ingest turns an exported recording into an experiment tree.
//
// Ingestion runs in two stages. Lines are classified independently on a
// bounded pool of workers and gathered back into file order; the ordered
// elements are then folded by a single Builder. Neither stage performs I/O
// beyond the initial read.
package ingest

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/antonmeskildsen/tracker-tools/internal/asc"
	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/fsutil"
	"github.com/antonmeskildsen/tracker-tools/internal/monitoring"
)

// DefaultChunkSize is the number of lines a worker classifies per task.
const DefaultChunkSize = 4096

// Options tunes classification. The zero value is ready to use.
type Options struct {
	// Workers bounds concurrent classification. Zero means GOMAXPROCS.
	Workers int
	// ChunkSize is the number of lines per task. Zero means DefaultChunkSize.
	ChunkSize int
	// Progress, when set, is called after every finished chunk with the
	// number of classified lines so far. Calls never overlap.
	Progress func(done, total int)
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return DefaultChunkSize
}

// LineError attaches the offending line to a classification or fold failure.
type LineError struct {
	// Line is 1-based.
	Line    int
	Content string
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Content)
}

func (e *LineError) Unwrap() error { return e.Err }

// ElementError reports the position of the element that aborted Build.
type ElementError struct {
	Index int
	Err   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// SplitLines splits input on "\n". A trailing newline does not produce an
// extra empty line.
func SplitLines(input string) []string {
	if input == "" {
		return nil
	}
	lines := strings.Split(input, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Classify decodes every line concurrently and returns the elements in line
// order. When several lines fail, the one nearest the start of the input is
// reported, independent of scheduling.
func Classify(lines []string, opts Options) ([]asc.Element, error) {
	results := make([]asc.Element, len(lines))
	if len(lines) == 0 {
		return results, nil
	}

	size := opts.chunkSize()
	chunks := (len(lines) + size - 1) / size
	failures := make([]*LineError, chunks)

	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(opts.workers())
	for c := 0; c < chunks; c++ {
		lo := c * size
		hi := min(lo+size, len(lines))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				el, err := asc.Classify(lines[i])
				if err != nil {
					failures[c] = &LineError{Line: i + 1, Content: lines[i], Err: err}
					break
				}
				results[i] = el
			}
			if opts.Progress != nil {
				mu.Lock()
				done += hi - lo
				opts.Progress(done, len(lines))
				mu.Unlock()
			}
			// Chunks never abort each other; the earliest failure is chosen
			// after every chunk has finished.
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failures {
		if f != nil {
			return nil, f
		}
	}
	return results, nil
}

// ParseLines classifies and folds pre-split lines.
func ParseLines(lines []string, opts Options) (*experiment.Experiment, error) {
	doneClassify := monitoring.Stage("classify")
	elems, err := Classify(lines, opts)
	if err != nil {
		return nil, err
	}
	doneClassify(len(elems))

	doneFold := monitoring.Stage("fold")
	b := NewBuilder()
	for i, el := range elems {
		if err := b.Add(el); err != nil {
			return nil, &LineError{Line: i + 1, Content: lines[i], Err: err}
		}
	}
	exp, err := b.Experiment()
	if err != nil {
		return nil, err
	}
	doneFold(len(exp.Trials))
	return exp, nil
}

// Parse converts the full text of an export into an Experiment. No partial
// result is returned on failure.
func Parse(input string, opts Options) (*experiment.Experiment, error) {
	return ParseLines(SplitLines(input), opts)
}

// ParseReader reads r to the end and parses its contents.
func ParseReader(r io.Reader, opts Options) (*experiment.Experiment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return Parse(string(data), opts)
}

// LoadFile parses the export stored at path in fsys.
func LoadFile(fsys fsutil.FileSystem, path string, opts Options) (*experiment.Experiment, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	exp, err := Parse(string(data), opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	monitoring.Logf("loaded %s: %d trials", path, len(exp.Trials))
	return exp, nil
}
