package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/spf13/cobra"

	"screen-math-llm/src/clipboard"
	"screen-math-llm/src/config"
	"screen-math-llm/src/eventloop"
	"screen-math-llm/src/gui"
	"screen-math-llm/src/logutil"
	"screen-math-llm/src/presenter"
	"screen-math-llm/src/prompt"
	"screen-math-llm/src/runtimeinit"
	"screen-math-llm/src/screenshot"
	"screen-math-llm/src/singleinstance"
	"screen-math-llm/src/tray"
)

const appID = "io.github.screen-math-llm"

type mainOptions struct {
	apiKeyPath string
	configFile string
	model      string
	mode       string
}

func main() {
	if err := newRootCmd(&mainOptions{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-math",
		Short:         "Capture a monitor and ask a vision model to solve the math problem on it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model identifier override")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Initial answer mode: direct or steps")

	return cmd
}

func loadOptions(opts mainOptions) config.LoadOptions {
	return config.LoadOptions{
		APIKeyPathOverride:  opts.apiKeyPath,
		ConfigFileOverride:  opts.configFile,
		DefaultModeOverride: opts.mode,
		ModelOverride:       opts.model,
	}
}

func run(opts mainOptions) error {
	// DPI awareness must precede any window or display query.
	enableDPIAwareness()

	a := app.NewWithID(appID)

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  loadOptions(opts),
		SetupLogging: logutil.Setup,
	})
	if err != nil {
		showStartupError(a, err)
		return err
	}
	cfg := rt.Config

	capturer := screenshot.New()
	monitors := capturer.Monitors()
	for _, m := range monitors {
		log.Printf("MONITOR: %s", m.Label())
	}

	mode, _ := prompt.ParseMode(cfg.DefaultMode)
	win := gui.New(a, screenshot.Labels(monitors), prompt.Labels(), mode.String())

	resident, err := singleinstance.Claim(context.Background(), func() {
		fyne.Do(func() {
			win.Window().Show()
			win.Window().RequestFocus()
		})
	})
	switch {
	case errors.Is(err, singleinstance.ErrAlreadyRunning):
		log.Printf("Already running, raised the existing window")
		return nil
	case err != nil:
		log.Printf("Warning: single-instance guard unavailable: %v", err)
	default:
		defer resident.Close()
	}

	debugDir := ""
	if cfg.DebugSaveImages {
		debugDir = "."
	}

	loop := eventloop.New(eventloop.Options{
		Monitors:  monitors,
		Capture:   capturer.Capture,
		Query:     rt.LLM.Query,
		Presenter: presenter.New(win.Surface(), clipboard.System{}, cfg.MinFontSize, cfg.MaxFontSize),
		Dialogs:   win,
		Post:      fyne.Do,
		DebugDir:  debugDir,
		OnBusy:    win.SetBusy,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := func() {
		monitor, mode := win.Selection()
		loop.Trigger(ctx, monitor, mode)
	}
	win.OnCapture(trigger)
	win.OnCopy(loop.Copy)
	tray.Install(a, gui.Title, trigger)

	if cfg.HotkeyEnabled() {
		loop.StartHotkey(ctx, cfg.Hotkey, win.Selection)
		log.Printf("Hotkey: %s", cfg.Hotkey)
	}

	win.ShowAndRun()
	return nil
}

// showStartupError blocks on an error dialog so configuration problems are
// visible when the program was started without a terminal.
func showStartupError(a fyne.App, err error) {
	log.Printf("Startup failed: %v", err)
	w := a.NewWindow(gui.Title)
	w.Resize(fyne.NewSize(480, 200))
	d := dialog.NewError(err, w)
	d.SetOnClosed(a.Quit)
	w.SetOnClosed(a.Quit)
	w.Show()
	d.Show()
	a.Run()
}
