package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) catCmd() *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "cat [-r REV] FILE...",
		Short: "output the current or given revision of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			r, err := a.open(nil)
			if err != nil {
				return err
			}

			if rev, err = tipOr(r, rev); err != nil {
				return err
			}

			out, err := r.Cat(rev, args...)
			if err != nil {
				return err
			}

			for _, res := range out.Results {
				if _, err := a.stdout.Write(res.Data); err != nil {
					return err
				}
			}

			for _, path := range out.Missing {
				fmt.Fprintf(a.stderr, "%s: no such file in rev %s\n", path, out.Node.Short())
				a.failed = true
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "rev", "r", "", "print the given revision")
	return cmd
}

func (a *app) filesCmd() *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "files [-r REV]",
		Short: "list tracked files",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			r, err := a.open(nil)
			if err != nil {
				return err
			}

			if rev, err = tipOr(r, rev); err != nil {
				return err
			}

			files, err := r.FilesAtRevision(rev)
			if err != nil {
				return err
			}

			for _, f := range files {
				fmt.Fprintln(a.stdout, f)
			}

			if len(files) == 0 {
				a.failed = true
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "rev", "r", "", "search the repository as it is in REV")
	return cmd
}
