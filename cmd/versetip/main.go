// Package main provides the versetip CLI: resolve Bible references, scan
// text and HTML for citations, and serve both over HTTP.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/VerseTip/core/bookindex"
	"github.com/FocuswithJustin/VerseTip/core/corpus"
	"github.com/FocuswithJustin/VerseTip/core/ref"
	"github.com/FocuswithJustin/VerseTip/core/resolve"
	"github.com/FocuswithJustin/VerseTip/core/sqlite"
	"github.com/FocuswithJustin/VerseTip/internal/api"
	"github.com/FocuswithJustin/VerseTip/internal/config"
	"github.com/FocuswithJustin/VerseTip/internal/logging"
	"github.com/FocuswithJustin/VerseTip/internal/page"
	"github.com/FocuswithJustin/VerseTip/internal/walk"
)

const version = "0.1.0"

// Replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
	logOut io.Writer = os.Stderr
)

// CLI defines the command-line interface.
var CLI struct {
	Config    string `help:"Config file or directory containing versetip.toml" type:"path" default:"."`
	Corpus    string `help:"Corpus file (.json, .json.xz, .xml, .db); overrides the config" type:"path"`
	LogLevel  string `help:"Log level: debug, info, warn, error; overrides the config"`
	LogFormat string `help:"Log format: json or text; overrides the config"`

	Resolve ResolveCmd `cmd:"" help:"Resolve references to verse text"`
	Scan    ScanCmd    `cmd:"" help:"Find and resolve citations in text or HTML"`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP API server"`
	Export  ExportCmd  `cmd:"" help:"Write the corpus to another format"`
	Info    InfoCmd    `cmd:"" help:"Show corpus and driver information"`
	Version VersionCmd `cmd:"" help:"Show version"`
}

// settings reads the config file, applies flag overrides and initializes
// logging.
func settings() (*config.Config, error) {
	cfg, err := config.Read(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.Corpus != "" {
		cfg.Corpus = CLI.Corpus
	}
	if CLI.LogLevel != "" {
		cfg.Logging.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Logging.Format = CLI.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	logging.InitLoggerWriter(level, format, logOut)
	return cfg, nil
}

var errNoCorpus = errors.New("no corpus configured (use --corpus or set corpus in versetip.toml)")

func newState(cfg *config.Config) *resolve.State {
	return resolve.NewState(resolve.WithMatcher(bookindex.NewScoreMatcher(cfg.Match.Threshold)))
}

// loadState loads the configured corpus and waits for it to be published.
func loadState(ctx context.Context, cfg *config.Config) (*resolve.State, error) {
	if cfg.Corpus == "" {
		return nil, errNoCorpus
	}
	state := newState(cfg)
	start := time.Now()
	sn, err := state.Load(ctx, resolve.FileLoader(cfg.Corpus), cfg.Corpus)
	if err != nil {
		logging.CorpusError(cfg.Corpus, err)
		return nil, err
	}
	logCorpusLoaded(sn, time.Since(start))
	return state, nil
}

func logCorpusLoaded(sn *resolve.Snapshot, d time.Duration) {
	st := sn.Corpus.Stats()
	logging.CorpusLoaded(sn.Source, sn.Fingerprint, sn.Generation, st.Books, st.Verses, d)
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ResolveCmd resolves references given on the command line.
type ResolveCmd struct {
	Refs []string `arg:"" name:"ref" help:"References such as \"John 3:16\" or \"2 Кор 5:1-2\""`
	JSON bool     `help:"Print results as JSON"`
}

type resolveOutput struct {
	Reference string              `json:"reference"`
	Resolved  bool                `json:"resolved"`
	Reason    string              `json:"reason,omitempty"`
	Book      string              `json:"book,omitempty"`
	Chapter   int                 `json:"chapter,omitempty"`
	Verses    []resolve.VerseText `json:"verses,omitempty"`
}

func (c *ResolveCmd) Run() error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	state, err := loadState(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		out    []resolveOutput
		failed int
	)
	for _, r := range c.Refs {
		res := state.Resolve(r)
		if !res.Resolved() {
			failed++
		}
		out = append(out, resolveOutput{
			Reference: r,
			Resolved:  res.Resolved(),
			Reason:    res.Reason(),
			Book:      res.Book,
			Chapter:   res.Chapter,
			Verses:    res.Verses,
		})
	}

	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		for _, o := range out {
			if o.Resolved {
				res := resolve.Result{Verses: o.Verses}
				fmt.Fprintf(stdout, "%s\t%s %d\t%s\n", o.Reference, o.Book, o.Chapter, res.String())
			} else {
				fmt.Fprintf(stdout, "%s\tunresolved (%s)\n", o.Reference, o.Reason)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d references unresolved", failed, len(c.Refs))
	}
	return nil
}

// ScanCmd scans files, directories or stdin for citations.
type ScanCmd struct {
	Paths      []string `arg:"" optional:"" type:"path" help:"Files or directories to scan; stdin when none"`
	HTML       bool     `help:"Treat every input as HTML (default: by .html/.htm extension)"`
	Glob       []string `help:"Patterns selecting files inside directories (default **/*.{txt,md,html,htm})" sep:"none"`
	Unresolved bool     `help:"Also list citations that do not resolve"`
}

func (c *ScanCmd) Run() error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	state, err := loadState(ctx, cfg)
	if err != nil {
		return err
	}
	opts := []ref.ScanOption{
		ref.WithNameScorer(state.NameScore),
		ref.WithMaxNameWords(cfg.Match.MaxNameWords),
	}

	if len(c.Paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		return c.scanOne("-", data, c.HTML, state, opts)
	}

	files, err := c.files(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		logging.Debug("scanning file", "path", f, "bytes", len(data))
		if err := c.scanOne(f, data, c.HTML || isHTMLFile(f), state, opts); err != nil {
			return err
		}
	}
	return nil
}

// files expands directories in c.Paths through the glob patterns.
func (c *ScanCmd) files(ctx context.Context) ([]string, error) {
	patterns := c.Glob
	if len(patterns) == 0 {
		patterns = walk.DefaultPatterns
	}
	var files []string
	for _, p := range c.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := walk.Files(ctx, p, patterns)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (c *ScanCmd) scanOne(name string, data []byte, isHTML bool, state *resolve.State, opts []ref.ScanOption) error {
	var matches []page.Match
	if isHTML {
		var err error
		if matches, err = page.ScanHTML(bytes.NewReader(data), opts...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	} else {
		matches = page.ScanText(string(data), opts...)
	}

	results := make(map[string]resolve.Result)
	for _, a := range page.Annotate(matches, state) {
		results[a.Key] = a.Result
	}

	resolved := 0
	for _, m := range matches {
		res := results[m.Key]
		if res.Resolved() {
			resolved++
			fmt.Fprintf(stdout, "%s:%d:%d\t%s\t%s %d\t%s\n",
				name, m.Unit, m.Span.Start, m.Span.Text, res.Book, res.Chapter, res.String())
			continue
		}
		if c.Unresolved {
			fmt.Fprintf(stdout, "%s:%d:%d\t%s\tunresolved (%s)\n",
				name, m.Unit, m.Span.Start, m.Span.Text, res.Reason())
		}
	}
	logging.ScanCompleted(name, len(matches), resolved)
	return nil
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// ServeCmd starts the HTTP API. The corpus loads in the background as a
// reload job; until it is published the API reports not ready.
type ServeCmd struct {
	Port    int      `short:"p" help:"Port to listen on (default from config)"`
	Origins []string `help:"Allowed CORS and websocket origins (default from config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	if c.Port > 0 {
		cfg.Server.Port = c.Port
	}
	if len(c.Origins) > 0 {
		cfg.Server.AllowedOrigins = c.Origins
	}

	state := newState(cfg)
	server, err := api.New(api.Config{
		Port:              cfg.Server.Port,
		Corpus:            cfg.Corpus,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		CacheSize:         cfg.Server.CacheSize,
		MaxNameWords:      cfg.Match.MaxNameWords,
		RateLimitRequests: cfg.Server.RateLimit,
		Auth: api.AuthConfig{
			Enabled: cfg.Server.APIKey != "",
			APIKey:  cfg.Server.APIKey,
		},
	}, state, nil)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	if cfg.Corpus == "" {
		logging.Warn("no corpus configured, server stays not ready", "hint", errNoCorpus.Error())
	} else {
		// The first load goes through the reload path so it is tracked
		// under /reload/{id} and announced to websocket clients.
		job, err := server.Reload()
		if err != nil {
			return err
		}
		logging.Info("initial corpus load started", "reload_id", job.ID, "source", job.Source)
	}

	fmt.Fprintf(stdout, "versetip %s listening on :%d\n", version, cfg.Server.Port)
	return server.Run(ctx)
}

// ExportCmd converts the configured corpus to the format implied by the
// output file name.
type ExportCmd struct {
	Out string `arg:"" type:"path" help:"Output file: .json, .json.xz, .db or .sqlite"`
}

func (c *ExportCmd) Run() error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	if cfg.Corpus == "" {
		return errNoCorpus
	}
	ctx, cancel := commandContext()
	defer cancel()

	corp, err := corpus.Load(ctx, cfg.Corpus)
	if err != nil {
		return err
	}

	lower := strings.ToLower(c.Out)
	switch {
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		if err := os.Remove(c.Out); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		err = sqlite.SaveCorpus(ctx, c.Out, corp)
	case strings.HasSuffix(lower, ".json.xz"):
		err = writeFile(c.Out, func(w io.Writer) error { return corpus.WriteXZ(w, corp) })
	case strings.HasSuffix(lower, ".json"):
		err = writeFile(c.Out, func(w io.Writer) error { return corpus.Encode(w, corp) })
	default:
		return fmt.Errorf("unsupported output format: %s", c.Out)
	}
	if err != nil {
		return err
	}

	st := corp.Stats()
	fmt.Fprintf(stdout, "Exported %d books, %d verses to %s\n", st.Books, st.Verses, c.Out)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// InfoCmd prints what the CLI knows about its corpus and storage.
type InfoCmd struct{}

func (c *InfoCmd) Run() error {
	cfg, err := settings()
	if err != nil {
		return err
	}

	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "Formats:     %s\n", strings.Join(corpus.Formats(), " "))
	fmt.Fprintf(stdout, "SQLite:      %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	if cfg.Corpus == "" {
		fmt.Fprintln(stdout, "Corpus:      none")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()
	corp, err := corpus.Load(ctx, cfg.Corpus)
	if err != nil {
		return err
	}
	st := corp.Stats()
	fmt.Fprintf(stdout, "Corpus:      %s\n", cfg.Corpus)
	fmt.Fprintf(stdout, "Fingerprint: %s\n", corpus.Fingerprint(corp))
	fmt.Fprintf(stdout, "Books:       %d\n", st.Books)
	fmt.Fprintf(stdout, "Chapters:    %d\n", st.Chapters)
	fmt.Fprintf(stdout, "Verses:      %d\n", st.Verses)
	return nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "versetip version %s\n", version)
	return nil
}

func main() {
	api.Version = version
	ctx := kong.Parse(&CLI,
		kong.Name("versetip"),
		kong.Description("Bible reference resolver and citation scanner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
