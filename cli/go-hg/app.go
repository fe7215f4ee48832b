package main

import (
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/go-hg/go-hg"
	"github.com/go-hg/go-hg/internal/trace"
	"github.com/go-hg/go-hg/plumbing/revlog"
	utrace "github.com/go-hg/go-hg/utils/trace"
)

// app holds the state shared by the commands of the tool.
type app struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	repoPath string
	trace    bool
	// failed is set by commands that completed but must report a failure,
	// like cat with missing files.
	failed bool
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{stdout: stdout, stderr: stderr}
	a.root = &cobra.Command{
		Use:           bin + " [command] (flags)",
		Short:         "read Mercurial repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			trace.ReadEnv()
			if a.trace {
				utrace.SetTarget(utrace.General | utrace.Revlog | utrace.NodeMap | utrace.Performance)
			}
		},
	}

	a.root.PersistentFlags().StringVarP(&a.repoPath, "repository", "R", ".", "repository root directory")
	a.root.PersistentFlags().BoolVar(&a.trace, "trace", false, "trace every operation to stderr")

	cobra.EnableCommandSorting = false
	a.root.AddCommand(
		a.catCmd(),
		a.filesCmd(),
		a.debugDataCmd(),
		a.debugIndexCmd(),
		a.debugNodemapCmd(),
		a.verifyCmd(),
	)

	return a
}

func (a *app) open(o *hg.OpenOptions) (*hg.Repository, error) {
	return hg.PlainOpen(a.repoPath, o)
}

// tipOr returns rev, or the last changelog revision when rev is empty.
func tipOr(r *hg.Repository, rev string) (string, error) {
	if rev != "" {
		return rev, nil
	}

	cl, err := r.Changelog()
	if err != nil {
		return "", err
	}
	defer cl.Close()

	if cl.IsEmpty() {
		return "null", nil
	}

	return strconv.Itoa(cl.Len() - 1), nil
}

// revlogFlags selects the changelog, the manifest or a filelog.
type revlogFlags struct {
	changelog bool
	manifest  bool
}

func (f *revlogFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.changelog, "changelog", "c", false, "open changelog")
	cmd.Flags().BoolVarP(&f.manifest, "manifest", "m", false, "open manifest")
}

// open returns the selected revlog; file is used when neither the
// changelog nor the manifest is selected.
func (f *revlogFlags) open(r *hg.Repository, file string) (*revlog.Revlog, error) {
	switch {
	case f.changelog && f.manifest:
		return nil, errors.New("cannot use --changelog and --manifest together")
	case f.changelog:
		cl, err := r.Changelog()
		if err != nil {
			return nil, err
		}
		return cl.Revlog, nil
	case f.manifest:
		m, err := r.Manifest()
		if err != nil {
			return nil, err
		}
		return m.Revlog, nil
	case file != "":
		fl, err := r.Filelog(file)
		if err != nil {
			return nil, err
		}
		return fl.Revlog, nil
	default:
		return nil, errors.New("one of --changelog, --manifest or a file is required")
	}
}
