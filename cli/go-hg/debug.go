package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/go-hg/go-hg"
	"github.com/go-hg/go-hg/plumbing"
)

func (a *app) debugDataCmd() *cobra.Command {
	var f revlogFlags
	cmd := &cobra.Command{
		Use:   "debugdata -c|-m REV",
		Short: "dump the contents of a data file revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var kind hg.DebugDataKind
			switch {
			case f.changelog && f.manifest:
				return errors.New("cannot use --changelog and --manifest together")
			case f.changelog:
				kind = hg.DebugDataChangelog
			case f.manifest:
				kind = hg.DebugDataManifest
			default:
				return errors.New("one of --changelog or --manifest is required")
			}

			r, err := a.open(nil)
			if err != nil {
				return err
			}

			data, err := r.DebugData(kind, args[0])
			if err != nil {
				return err
			}

			_, err = a.stdout.Write(data)
			return err
		},
	}

	f.register(cmd)
	return cmd
}

func (a *app) debugIndexCmd() *cobra.Command {
	var f revlogFlags
	cmd := &cobra.Command{
		Use:   "debugindex -c|-m|FILE",
		Short: "dump index data for a revlog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			r, err := a.open(nil)
			if err != nil {
				return err
			}

			var file string
			if len(args) == 1 {
				file = args[0]
			}

			rl, err := f.open(r, file)
			if err != nil {
				return err
			}
			defer rl.Close()

			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"rev", "linkrev", "node", "p1", "p2", "offset", "length", "base"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)

			idx := rl.Index()
			for i := 0; i < idx.Len(); i++ {
				e, ok := idx.Entry(plumbing.Revision(i))
				if !ok {
					return plumbing.RevisionNotInIndexError(plumbing.Revision(i))
				}

				table.Append([]string{
					strconv.Itoa(i),
					e.LinkRevision().String(),
					e.Node().Short().String(),
					e.P1().String(),
					e.P2().String(),
					strconv.FormatUint(e.Offset(), 10),
					strconv.FormatUint(uint64(e.CompressedLen()), 10),
					e.BaseRevision().String(),
				})
			}

			table.Render()
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

// printf writes to the standard output of the tool.
func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.stdout, format, args...)
}
