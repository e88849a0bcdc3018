package runtimeinit

import (
	"fmt"
	"log"
	"net/http"

	"screen-math-llm/src/clipboard"
	"screen-math-llm/src/config"
	"screen-math-llm/src/llm"
	"screen-math-llm/src/logutil"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// SkipClipboard leaves the system clipboard uninitialized (headless runs).
	SkipClipboard bool
	HTTPClient    *http.Client
}

// Runtime is what every entry point needs after startup.
type Runtime struct {
	Config *config.Config
	LLM    *llm.Client
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := llm.New(llm.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Endpoint:   cfg.Endpoint,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	log.Printf("Using model %s at %s (key %s)", cfg.Model, cfg.Endpoint, logutil.RedactKey(cfg.APIKey))

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return &Runtime{Config: cfg, LLM: client}, nil
}
