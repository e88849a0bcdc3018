package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-math-llm/src/clipboard"
	"screen-math-llm/src/config"
	"screen-math-llm/src/logutil"
	"screen-math-llm/src/presenter"
	"screen-math-llm/src/prompt"
	"screen-math-llm/src/runtimeinit"
	"screen-math-llm/src/screenshot"
	"screen-math-llm/src/session"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024

	exitNoAnswer = 2
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// errNoAnswer marks a completed run where the model produced nothing usable.
var errNoAnswer = errors.New("no answer returned")

type cliOptions struct {
	monitor      int
	mode         string
	filePath     string
	listMonitors bool
	jsonOutput   bool
	copyAnswer   bool
	verbose      bool
	ping         bool
	apiKeyPath   string
	configFile   string
}

// deps are the collaborators a run needs; tests replace them.
type deps struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	monitors func() []screenshot.Monitor
	capture  session.CaptureFunc
	runtime  func(runtimeinit.Options) (*runtimeinit.Runtime, error)
	copy     func(string) error
}

func defaultDeps() deps {
	capturer := screenshot.New()
	return deps{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		monitors: capturer.Monitors,
		capture:  capturer.Capture,
		runtime:  runtimeinit.Bootstrap,
		copy:     clipboard.Write,
	}
}

func main() {
	err := runWithArgs(normalizeLegacyArgs(os.Args), defaultDeps())
	switch {
	case err == nil:
	case errors.Is(err, errNoAnswer):
		os.Exit(exitNoAnswer)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, d deps) error {
	if len(args) == 0 {
		args = []string{"screen-math"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, d)
	cmd.SetArgs(args[1:])
	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-math",
		Short:         "Solve the math problem shown on a monitor or in a PNG file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, d)
		},
	}

	cmd.Flags().IntVar(&opts.monitor, "monitor", 1, "Monitor number as listed by --list-monitors")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Answer mode: direct or steps (default from config)")
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Use a PNG file instead of capturing (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.listMonitors, "list-monitors", false, "List monitors and exit")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.copyAnswer, "copy", false, "Copy the answer to the clipboard")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().BoolVar(&opts.ping, "ping", false, "Check the API key and model, then exit")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to YAML config file")
	cmd.MarkFlagsMutuallyExclusive("file", "monitor")

	return cmd
}

func runWithOptions(opts cliOptions, d deps) error {
	if opts.listMonitors {
		for _, m := range d.monitors() {
			fmt.Fprintln(d.stdout, m.Label())
		}
		return nil
	}

	if opts.mode != "" {
		if _, err := prompt.ParseMode(opts.mode); err != nil {
			return fmt.Errorf("invalid --mode: %w (use direct or steps)", err)
		}
	}

	verbosef := func(format string, args ...any) {
		if opts.verbose {
			fmt.Fprintf(d.stderr, "[verbose] "+format+"\n", args...)
		}
	}

	rt, err := d.runtime(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride:  opts.apiKeyPath,
			ConfigFileOverride:  opts.configFile,
			DefaultModeOverride: opts.mode,
		},
		SetupLogging: func(bool) {
			if opts.verbose {
				log.SetOutput(d.stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
		SkipClipboard: !opts.copyAnswer,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config
	verbosef("Config loaded: Model=%s, Key=%s", cfg.Model, logutil.RedactKey(cfg.APIKey))

	if opts.ping {
		if err := rt.LLM.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		fmt.Fprintf(d.stdout, "OK: model %s is reachable\n", cfg.Model)
		return nil
	}

	mode, err := prompt.ParseMode(cfg.DefaultMode)
	if err != nil {
		return err
	}

	req := session.Request{MonitorIndex: opts.monitor - 1, Mode: mode}
	capture := d.capture
	source := fmt.Sprintf("monitor:%d", opts.monitor)
	if opts.filePath != "" {
		imageData, err := readPNG(opts.filePath, d.stdin)
		if err != nil {
			return err
		}
		verbosef("Read %d bytes from %s", len(imageData), opts.filePath)
		capture = func(int) ([]byte, error) { return imageData, nil }
		source = opts.filePath
	}

	verbosef("Querying %s in %s mode", source, mode)
	start := time.Now()
	res, err := session.Execute(context.Background(), session.Options{
		Capture: capture,
		Query:   rt.LLM.Query,
	}, req)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}
	verbosef("Finished in %v (ok=%v)", elapsed, res.OK)

	text := res.Text
	if !res.OK {
		text = presenter.Placeholder
	}
	if opts.copyAnswer && res.OK {
		if err := d.copy(text); err != nil {
			return fmt.Errorf("failed to copy answer: %w", err)
		}
		verbosef("Answer copied to clipboard")
	}

	if err := outputResult(d.stdout, Result{
		Text:     text,
		OK:       res.OK,
		Mode:     mode.String(),
		Source:   source,
		Model:    cfg.Model,
		Duration: elapsed.Seconds(),
	}, opts.jsonOutput); err != nil {
		return err
	}

	if !res.OK {
		return errNoAnswer
	}
	return nil
}

func readPNG(path string, stdin io.Reader) ([]byte, error) {
	var (
		imageData []byte
		err       error
	)
	if path == "-" {
		imageData, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		imageData, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	if len(imageData) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(imageData) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(imageData) < len(pngMagic) || !bytes.Equal(imageData[:len(pngMagic)], pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return imageData, nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	long := map[string]bool{
		"monitor": true, "mode": true, "file": true, "json": true,
		"copy": true, "verbose": true, "ping": true, "config": true,
		"api-key-path": true, "list-monitors": true,
	}

	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, value, hasValue := strings.Cut(arg[1:], "=")
		if !long[name] {
			continue
		}
		normalized[i] = "--" + name
		if hasValue {
			normalized[i] += "=" + value
		}
	}
	return normalized
}

type Result struct {
	Text      string  `json:"text"`
	OK        bool    `json:"ok"`
	Mode      string  `json:"mode"`
	Source    string  `json:"source"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
}

func outputResult(w io.Writer, result Result, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, result.Text)
		return err
	}

	result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
