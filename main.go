// l10nkit rebases Brave localization files on their Chromium counterparts.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brave/l10nkit/classify"
	"github.com/brave/l10nkit/config"
	"github.com/brave/l10nkit/i18n"
	"github.com/brave/l10nkit/lockfile"
	"github.com/brave/l10nkit/mapping"
	"github.com/brave/l10nkit/rebase"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed)
)

// logOut is where log lines go; tests replace it.
var logOut io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	_, _ = infoColor.Fprint(logOut, "[INFO]")
	fmt.Fprintf(logOut, " "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	_, _ = successColor.Fprint(logOut, "[OK]")
	fmt.Fprintf(logOut, " "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	_, _ = warningColor.Fprint(logOut, "[WARN]")
	fmt.Fprintf(logOut, " "+format+"\n", args...)
}

func logError(format string, args ...any) {
	_, _ = errorColor.Fprint(logOut, "[ERROR]")
	fmt.Fprintf(logOut, " "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	verbose    bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "l10nkit",
		Short: "Rebase Brave localization files on Chromium's",
		Long: `l10nkit maps Chromium GRD/GRDP localization descriptors to their Brave
counterparts and regenerates the Brave copies with Brave branding.

The registry of descriptor pairs comes from .l10nkit.yaml in the root
directory (or --config). Without one, the built-in Chromium -> Brave registry
is used with --root as the Chromium src directory.

Commands:
  map       Print the upstream -> downstream mapping
  paths     Print the path lists used by translation sync tools
  rebase    Regenerate downstream files from upstream files
  check     Validate the registry and the upstream files
  rules     Print the ordered substitution rules`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Chromium src directory (or directory containing .l10nkit.yaml)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: <root>/"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log mapping progress")

	root.AddCommand(
		newMapCmd(),
		newPathsCmd(),
		newRebaseCmd(),
		newCheckCmd(),
		newRulesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "l10nkit version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Project loading
// ---------------------------------------------------------------------------

// project is the resolved registry for one invocation.
type project struct {
	cfg     *config.Resolved
	source  string // config file path, or "built-in"
	lockDir string
}

func loadProject() (*project, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	var f *config.File
	source := ""
	if configPath != "" {
		if f, err = config.LoadFile(configPath); err != nil {
			return nil, err
		}
		source = configPath
	} else {
		if f, err = config.Load(absRoot); err != nil {
			return nil, err
		}
		source = filepath.Join(absRoot, config.FileName)
	}

	lockDir := absRoot
	if f == nil {
		f = config.Builtin(absRoot)
		source = i18n.T("built-in registry")
	} else {
		lockDir = f.Dir()
	}

	cfg, err := f.Resolve(absRoot)
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, source: source, lockDir: lockDir}, nil
}

func (p *project) buildMapping() (*mapping.Mapping, error) {
	var logf func(string, ...any)
	if verbose {
		logf = logInfo
	}
	m, err := p.cfg.BuildMapping(logf)
	if err != nil {
		return nil, fmt.Errorf("building mapping from %s: %w", p.source, err)
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// map
// ---------------------------------------------------------------------------

func newMapCmd() *cobra.Command {
	var inverse bool
	var format string

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print the upstream -> downstream mapping",
		Long: `Build the mapping from the registry and print it.

With --inverse the mapping is printed downstream -> upstream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			m, err := p.buildMapping()
			if err != nil {
				return err
			}
			return printMapping(cmd.OutOrStdout(), m, inverse, format)
		},
	}

	cmd.Flags().BoolVar(&inverse, "inverse", false, "Print downstream -> upstream")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}

func printMapping(w io.Writer, m *mapping.Mapping, inverse bool, format string) error {
	entries := m.Entries()
	if inverse {
		for i, e := range entries {
			up, _ := m.Upstream(e.Downstream)
			entries[i] = mapping.Entry{Upstream: e.Downstream, Downstream: up}
		}
	}

	switch format {
	case "text":
		for _, e := range entries {
			fmt.Fprintf(w, "%s -> %s\n", e.Upstream, e.Downstream)
		}
		return nil
	case "yaml":
		var key, value string
		if inverse {
			key, value = "downstream", "upstream"
		} else {
			key, value = "upstream", "downstream"
		}
		out := make([]map[string]string, len(entries))
		for i, e := range entries {
			out[i] = map[string]string{key: e.Upstream, value: e.Downstream}
		}
		return writeYAML(w, out)
	}
	return fmt.Errorf("unknown format %q (valid: text, yaml)", format)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// ---------------------------------------------------------------------------
// paths
// ---------------------------------------------------------------------------

func newPathsCmd() *cobra.Command {
	var view string
	var extra bool
	var format string

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the path lists used by translation sync tools",
		Long: `Print one of the downstream path views:

  generated       files produced by rebase
  non-generated   downstream-only files maintained by hand
  all             non-generated followed by generated
  top-level       the subset of all with a top-level extension (default)

The translation service tracks one unit per top-level descriptor, so push
and pull scripts use the top-level view. With --format yaml every view is
printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			m, err := p.buildMapping()
			if err != nil {
				return err
			}
			views := classify.Classify(m, p.cfg.NonGenerated, p.cfg.TopLevelExtensions)
			return printViews(cmd.OutOrStdout(), views, view, format, extraPaths(p, extra))
		},
	}

	cmd.Flags().StringVar(&view, "view", classify.ViewTopLevel, "View: generated, non-generated, all, top-level")
	cmd.Flags().BoolVar(&extra, "extra", false, "Also print extra_paths from the registry")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}

func extraPaths(p *project, include bool) []string {
	if !include {
		return nil
	}
	return p.cfg.ExtraPaths
}

func printViews(w io.Writer, views classify.Views, view, format string, extra []string) error {
	switch format {
	case "yaml":
		out := struct {
			classify.Views `yaml:",inline"`
			Extra          []string `yaml:"extra,omitempty"`
		}{views, extra}
		return writeYAML(w, out)
	case "text":
		paths, ok := views.Select(view)
		if !ok {
			return fmt.Errorf("unknown view %q (valid: %s, %s, %s, %s)", view,
				classify.ViewGenerated, classify.ViewNonGenerated, classify.ViewAll, classify.ViewTopLevel)
		}
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		for _, p := range extra {
			fmt.Fprintln(w, p)
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (valid: text, yaml)", format)
}

// ---------------------------------------------------------------------------
// rebase
// ---------------------------------------------------------------------------

type rebaseArgs struct {
	maxConcurrent int
	incremental   bool
	dryRun        bool
}

func newRebaseCmd() *cobra.Command {
	var a rebaseArgs

	cmd := &cobra.Command{
		Use:   "rebase",
		Short: "Regenerate downstream files from upstream files",
		Long: `Read every upstream file in the mapping, apply the branding rules in
order, and overwrite the downstream file.

All files are processed concurrently. A file that cannot be read or written
does not stop the others; every failure is reported with its paths and the
command exits non-zero.

With --incremental, l10nkit.lock records what each downstream file was built
from and unchanged files are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("max-concurrent") && a.maxConcurrent < 0 {
				return fmt.Errorf("--max-concurrent must not be negative")
			}
			return runRebase(cmd, a)
		},
	}

	cmd.Flags().IntVar(&a.maxConcurrent, "max-concurrent", 0, "Max files processed in parallel (0 = registry setting, unlimited by default)")
	cmd.Flags().BoolVar(&a.incremental, "incremental", false, "Skip files whose input is unchanged since the last run")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would be written without writing")
	return cmd
}

func runRebase(cmd *cobra.Command, a rebaseArgs) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	// The mapping must be fully valid before any file is touched.
	m, err := p.buildMapping()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng := &rebase.Engine{
		Rules:         p.cfg.Rules,
		MaxConcurrent: p.cfg.MaxConcurrent,
		DryRun:        a.dryRun,
		OnError:       logError,
	}
	if a.maxConcurrent > 0 {
		eng.MaxConcurrent = a.maxConcurrent
	}
	if verbose || a.dryRun {
		eng.OnLog = logInfo
	}

	var lock *lockfile.LockFile
	if a.incremental && !a.dryRun {
		if lock, err = lockfile.Load(p.lockDir); err != nil {
			return err
		}
		eng.Lock = lock
	}

	logInfo(i18n.N("Rebasing %d file...", "Rebasing %d files...", m.Len()), m.Len())
	res, rebaseErr := eng.Rebase(ctx, m)

	if lock != nil {
		lock.Clean(m.Downstreams())
		if err := lock.Save(); err != nil {
			logWarning("%v", err)
		}
	}

	printRebaseSummary(res)
	if rebaseErr != nil {
		n := len(res.Failed())
		return fmt.Errorf(i18n.N("%d file failed", "%d files failed", n), n)
	}
	return nil
}

func printRebaseSummary(res *rebase.Result) {
	written := res.Count(rebase.StatusWritten)
	planned := res.Count(rebase.StatusWouldWrite)
	unchanged := res.Count(rebase.StatusUnchanged)
	skipped := res.Count(rebase.StatusSkipped)
	failed := res.Count(rebase.StatusFailed)

	if written > 0 {
		logSuccess(i18n.N("Wrote %d file", "Wrote %d files", written), written)
	}
	if planned > 0 {
		logInfo(i18n.N("Would write %d file", "Would write %d files", planned), planned)
	}
	if unchanged > 0 {
		logInfo(i18n.N("%d file already up to date", "%d files already up to date", unchanged), unchanged)
	}
	if skipped > 0 {
		logInfo(i18n.N("Skipped %d unchanged input", "Skipped %d unchanged inputs", skipped), skipped)
	}
	if failed > 0 {
		logError(i18n.N("%d file failed", "%d files failed", failed), failed)
	}
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the registry and the upstream files",
		Long: `Build the mapping (which fails on duplicate targets and unreadable
descriptors) and verify that every upstream file exists and every
non-generated file is present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			m, err := p.buildMapping()
			if err != nil {
				return err
			}
			return runCheck(p, m)
		},
	}
}

func runCheck(p *project, m *mapping.Mapping) error {
	logInfo(i18n.T("Registry: %s"), p.source)

	var missing []string
	for _, e := range m.Entries() {
		if _, err := os.Stat(e.Upstream); err != nil {
			missing = append(missing, e.Upstream)
		}
	}
	for _, path := range p.cfg.NonGenerated {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)

	for _, path := range missing {
		logError(i18n.T("Missing file: %s"), path)
	}
	if len(missing) > 0 {
		return fmt.Errorf(i18n.N("%d file missing", "%d files missing", len(missing)), len(missing))
	}
	logSuccess("%s", i18n.T("Mapping is valid"))
	logInfo(i18n.N("%d mapped file", "%d mapped files", m.Len()), m.Len())
	return nil
}

// ---------------------------------------------------------------------------
// rules
// ---------------------------------------------------------------------------

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the ordered substitution rules",
		Long: `Print the substitution rules in the order they are applied. Rules run
one after another over the whole text; earlier rules see the original wording.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, r := range p.cfg.Rules {
				fmt.Fprintf(out, "%2d. %q -> %q\n", i+1, r.Pattern.String(), r.Replacement)
			}
			fmt.Fprintf(out, "fingerprint: %s\n", p.cfg.Rules.Fingerprint())
			return nil
		},
	}
}
