package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"demoapps/internal/locale"
	"demoapps/internal/translate"
)

// readyTranslator builds the configured backend and checks it can serve.
func (a *app) readyTranslator(ctx context.Context) (translate.Translator, error) {
	tr, err := a.newTranslator(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	if err := tr.Check(ctx); err != nil {
		return nil, fmt.Errorf("%s is not ready: %w", tr.Name(), err)
	}
	a.log.Info("translation backend ready", zap.String("backend", tr.Name()))
	return tr, nil
}

func newTranslateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [code]",
		Short: "Fill placeholders with model translations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loadSource(); err != nil {
				return err
			}
			codes, err := a.targets(args)
			if err != nil {
				return err
			}
			if len(codes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No languages to translate; create one with: i18n onboard <code>")
				return nil
			}
			return a.translateAll(cmd, codes)
		},
	}
}

// translateAll fills the placeholders of every listed language, saving each
// file as it goes.
func (a *app) translateAll(cmd *cobra.Command, codes []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	tr, err := a.readyTranslator(ctx)
	if err != nil {
		return err
	}
	runner := translate.NewRunner(tr, a.cfg.Delay, a.log)

	total := 0
	for _, code := range codes {
		path := a.localePath(code)
		tree, err := locale.Load(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Translating %s (%s)...\n", code, locale.LanguageName(code))
		rep, runErr := runner.TranslateLocale(ctx, tree, code)
		// Keep whatever was translated before an interruption.
		if rep.Translated > 0 {
			if err := locale.Save(path, tree); err != nil {
				return err
			}
		}
		if runErr != nil {
			return runErr
		}
		if rep.Translated == 0 && len(rep.Failed) == 0 {
			fmt.Fprintf(out, "  %s has no placeholders\n", code)
		} else {
			fmt.Fprintf(out, "  translated %d placeholder(s)\n", rep.Translated)
		}
		for _, key := range rep.Failed {
			fmt.Fprintf(out, "  failed: %s (placeholder kept)\n", key)
		}
		total += rep.Translated
	}
	fmt.Fprintf(out, "Translated %d placeholder(s) across %d language(s)\n", total, len(codes))
	if total > 0 {
		fmt.Fprintln(out, "Next: review the files, then run i18n validate")
	}
	return nil
}

func newValidateCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate [code]",
		Short: "Ask the model to review existing translations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.loadSource()
			if err != nil {
				return err
			}
			codes, err := a.targets(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(codes) == 0 {
				fmt.Fprintln(out, "No languages to validate; create one with: i18n onboard <code>")
				return nil
			}

			ctx := cmd.Context()
			tr, err := a.readyTranslator(ctx)
			if err != nil {
				return err
			}
			runner := translate.NewRunner(tr, a.cfg.Delay, a.log)

			reports := make(map[string]translate.ValidationReport, len(codes))
			for _, code := range codes {
				tree, err := locale.Load(a.localePath(code))
				if err != nil {
					return err
				}
				rep, err := runner.ValidateLocale(ctx, src, tree, code)
				if err != nil {
					return err
				}
				reports[code] = rep
				if !asJSON {
					printValidation(out, code, rep)
				}
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reports as JSON")
	return cmd
}

func printValidation(out io.Writer, code string, rep translate.ValidationReport) {
	fmt.Fprintf(out, "%s (%s)\n", code, locale.LanguageName(code))
	fmt.Fprintf(out, "  validated: %d  passed: %d  failed: %d\n", rep.Validated, rep.Passed, rep.Failed)
	if rep.Validated > 0 {
		fmt.Fprintf(out, "  success rate: %.1f%%\n", rep.SuccessRate())
	}
	for _, is := range rep.Issues {
		fmt.Fprintf(out, "  - %s (score %d)\n", is.Key, is.Score)
		fmt.Fprintf(out, "      original:    %s\n", is.Original)
		fmt.Fprintf(out, "      translation: %s\n", is.Translation)
		for _, s := range is.Issues {
			fmt.Fprintf(out, "      issue: %s\n", s)
		}
		for _, s := range is.Suggestions {
			fmt.Fprintf(out, "      suggestion: %s\n", s)
		}
	}
	fmt.Fprintln(out)
}
