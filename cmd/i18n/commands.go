package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"demoapps/internal/locale"
)

func (a *app) localePath(code string) string {
	return filepath.Join(a.cfg.LocalesDir, code+".json")
}

func (a *app) loadSource() (*locale.Tree, error) {
	path := a.localePath(locale.SourceCode)
	tree, err := locale.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("source locale not found at %s", path)
	}
	return tree, err
}

// languages lists the locale codes present, sorted.
func (a *app) languages() ([]string, error) {
	entries, err := os.ReadDir(a.cfg.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("read locale directory: %w", err)
	}
	var codes []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		codes = append(codes, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(codes)
	return codes, nil
}

// targets resolves the languages a command works on: the one named, or
// every language but the source.
func (a *app) targets(args []string) ([]string, error) {
	codes, err := a.languages()
	if err != nil {
		return nil, err
	}
	var others []string
	for _, c := range codes {
		if c != locale.SourceCode {
			others = append(others, c)
		}
	}
	if len(args) == 0 {
		return others, nil
	}
	code := args[0]
	for _, c := range others {
		if c == code {
			return []string{code}, nil
		}
	}
	available := "none"
	if len(others) > 0 {
		available = strings.Join(others, ", ")
	}
	return nil, fmt.Errorf("language %q not found in %s (available: %s)", code, a.cfg.LocalesDir, available)
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List languages and their translation progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := a.languages()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(codes) == 0 {
				fmt.Fprintf(out, "No language files in %s\n", a.cfg.LocalesDir)
				return nil
			}

			fmt.Fprintln(out, "Available languages:")
			fmt.Fprintln(out)
			for _, code := range codes {
				path := a.localePath(code)
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				tree, err := locale.Load(path)
				if err != nil {
					return err
				}
				stats := locale.Count(tree)

				var status string
				switch {
				case code == locale.SourceCode:
					status = "source"
				case stats.Complete():
					status = "complete"
				default:
					status = fmt.Sprintf("%d/%d translated", stats.Translated(), stats.Total)
				}
				fmt.Fprintf(out, "  %-6s %s (%s)\n", code, status, locale.LanguageName(code))
				fmt.Fprintf(out, "         %s, %s keys, %s\n",
					filepath.Base(path), humanize.Comma(int64(stats.Total)), humanize.Bytes(uint64(info.Size())))
				if code != locale.SourceCode && !stats.Complete() {
					fmt.Fprintf(out, "         %d keys need translation\n", stats.Untranslated)
				}
			}
			return nil
		},
	}
}

func newOnboardCmd(a *app) *cobra.Command {
	var withTranslate bool
	cmd := &cobra.Command{
		Use:   "onboard <code>",
		Short: "Create a new language from the source locale, with placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			if !locale.ValidCode(code) {
				return fmt.Errorf("invalid language code %q: use two lowercase letters, optionally followed by a region (es, pt-BR)", code)
			}
			src, err := a.loadSource()
			if err != nil {
				return err
			}
			path := a.localePath(code)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("language %q already exists at %s", code, path)
			}

			tree := locale.Onboard(src)
			if err := locale.Save(path, tree); err != nil {
				return err
			}
			a.log.Info("onboarded language", zap.String("lang", code), zap.String("path", path))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s (%s) with %d keys to translate\n",
				path, locale.LanguageName(code), locale.Count(tree).Untranslated)
			if withTranslate {
				return a.translateAll(cmd, []string{code})
			}
			fmt.Fprintf(out, "Next: i18n translate %s\n", code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withTranslate, "translate", false, "fill the new placeholders with the translation backend right away")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update [code]",
		Short: "Add keys missing from existing languages as placeholders",
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
				fmt.Fprintln(out, "No languages to update; create one with: i18n onboard <code>")
				return nil
			}

			total := 0
			for _, code := range codes {
				path := a.localePath(code)
				tree, err := locale.Load(path)
				if err != nil {
					return err
				}
				added := locale.Merge(src, tree)
				if added == 0 {
					fmt.Fprintf(out, "  %s is up to date\n", code)
					continue
				}
				if err := locale.Save(path, tree); err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s: added %d missing key(s)\n", code, added)
				total += added
			}
			fmt.Fprintf(out, "Added %d key(s) across %d language(s)\n", total, len(codes))
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var showUnused, hardcoded bool
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Report missing translation keys and hard-coded user-facing text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			src, err := a.loadSource()
			if err != nil {
				return err
			}
			usages, err := locale.ScanUsages(root)
			if err != nil {
				return err
			}
			cov := locale.CheckCoverage(src, usages)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d distinct key(s) used under %s\n", cov.Used, root)
			if showUnused && len(cov.Unused) > 0 {
				fmt.Fprintf(out, "\nUnused keys (%d):\n", len(cov.Unused))
				for _, k := range cov.Unused {
					fmt.Fprintf(out, "  %s\n", k)
				}
			}

			var failed []error
			if len(cov.Missing) == 0 {
				fmt.Fprintln(out, "All used keys are defined")
			} else {
				fmt.Fprintf(out, "\nMissing keys (%d):\n", len(cov.Missing))
				for _, m := range cov.Missing {
					fmt.Fprintf(out, "  %s: missing key %q\n", m.At, m.Key)
				}
				failed = append(failed, errMissingKeys)
			}

			if hardcoded {
				found, err := locale.HardcodedText(root)
				if err != nil {
					return err
				}
				if len(found) == 0 {
					fmt.Fprintln(out, "No hard-coded text found")
				} else {
					fmt.Fprintf(out, "\nHard-coded text (%d):\n", len(found))
					for _, h := range found {
						fmt.Fprintf(out, "  %s: %s: %q\n", h.At, h.Context, h.Text)
					}
					failed = append(failed, errHardcodedText)
				}
			}
			return errors.Join(failed...)
		},
	}
	cmd.Flags().BoolVar(&showUnused, "unused", true, "also list keys that nothing references")
	cmd.Flags().BoolVar(&hardcoded, "hardcoded", true, "also report user-facing text that bypasses translation keys")
	return cmd
}
