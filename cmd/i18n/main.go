// Command i18n manages the locale files of the web shell: listing, onboarding
// and updating languages, checking key coverage, and filling or reviewing
// translations with a language model.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"demoapps/internal/config"
	"demoapps/internal/logger"
	"demoapps/internal/translate"
)

// check exits non-zero with these after its report is printed.
var (
	errMissingKeys   = errors.New("translation keys missing from source locale")
	errHardcodedText = errors.New("hard-coded user-facing text found")
)

type app struct {
	cfg config.I18nConfig
	log *zap.Logger

	// flag values, applied over the loaded config when set
	localesDir string
	backend    string
	model      string
	delay      time.Duration
	logLevel   string
	pull       bool

	newTranslator func(ctx context.Context, cfg config.I18nConfig) (translate.Translator, error)
}

func newApp() *app {
	return &app{log: zap.NewNop(), newTranslator: newTranslator}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "i18n",
		Short:         "Manage locale files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.localesDir, "locales", "l", "", "locale directory (default from config: web/locales)")
	flags.StringVar(&a.backend, "backend", "", "translation backend: gemini or ollama")
	flags.StringVar(&a.model, "model", "", "model name overriding the backend default")
	flags.DurationVar(&a.delay, "delay", 0, "pause between model calls (default 500ms)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&a.pull, "pull", false, "ollama: download missing models instead of failing")

	root.AddCommand(
		newListCmd(a),
		newOnboardCmd(a),
		newUpdateCmd(a),
		newCheckCmd(a),
		newTranslateCmd(a),
		newValidateCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("locales") {
		cfg.I18n.LocalesDir = a.localesDir
	}
	if flags.Changed("backend") {
		cfg.I18n.Backend = a.backend
	}
	if flags.Changed("model") {
		cfg.I18n.Model = a.model
	}
	if flags.Changed("delay") {
		cfg.I18n.Delay = a.delay
	}
	if flags.Changed("pull") {
		cfg.I18n.PullModels = a.pull
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		return err
	}
	a.cfg = cfg.I18n
	a.log = log.Named("i18n")
	return nil
}

func newTranslator(ctx context.Context, cfg config.I18nConfig) (translate.Translator, error) {
	switch cfg.Backend {
	case "gemini":
		return translate.NewGemini(ctx, translate.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.Model})
	case "ollama":
		o := translate.NewOllama(cfg.OllamaURL, cfg.Model)
		if cfg.PullModels {
			o.PullMissing()
		}
		return o, nil
	}
	return nil, fmt.Errorf("unknown translation backend %q", cfg.Backend)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errMissingKeys) && !errors.Is(err, errHardcodedText) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
