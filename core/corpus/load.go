package corpus

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// LoadFunc loads a corpus from a path.
type LoadFunc func(ctx context.Context, path string) (*Corpus, error)

// formatRegistry maps a file suffix (".json", ".json.xz", ...) to a loader.
var (
	formatMu       sync.RWMutex
	formatRegistry = map[string]LoadFunc{
		".json":    loadJSON,
		".json.xz": loadJSONXZ,
		".xml":     loadXML,
	}
)

// RegisterFormat registers a loader for paths ending in suffix. It is meant
// to be called from init functions.
func RegisterFormat(suffix string, fn LoadFunc) {
	formatMu.Lock()
	defer formatMu.Unlock()
	formatRegistry[strings.ToLower(suffix)] = fn
}

// Formats returns the registered suffixes, sorted.
func Formats() []string {
	formatMu.RLock()
	defer formatMu.RUnlock()
	out := make([]string, 0, len(formatRegistry))
	for s := range formatRegistry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// lookupFormat picks the loader with the longest suffix matching path, so
// that ".json.xz" wins over ".xz".
func lookupFormat(path string) (LoadFunc, bool) {
	formatMu.RLock()
	defer formatMu.RUnlock()

	lower := strings.ToLower(path)
	var (
		best    LoadFunc
		bestLen int
	)
	for suffix, fn := range formatRegistry {
		if strings.HasSuffix(lower, suffix) && len(suffix) > bestLen {
			best, bestLen = fn, len(suffix)
		}
	}
	return best, best != nil
}

// Load reads and validates the corpus at path.
func Load(ctx context.Context, path string) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, ok := lookupFormat(path)
	if !ok {
		return nil, errors.NewUnsupported("corpus format", path)
	}
	c, err := fn(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	return f, nil
}

func loadJSON(_ context.Context, path string) (*Corpus, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func loadJSONXZ(_ context.Context, path string) (*Corpus, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.NewIO("decompress", path, err)
	}
	return Decode(xzr)
}

func loadXML(_ context.Context, path string) (*Corpus, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeXML(f)
}

// WriteXZ writes c as an xz-compressed corpus document.
func WriteXZ(w io.Writer, c *Corpus) error {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "create xz writer")
	}
	if err := Encode(xzw, c); err != nil {
		xzw.Close()
		return err
	}
	return xzw.Close()
}
