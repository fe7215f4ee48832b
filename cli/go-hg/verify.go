package main

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-hg/go-hg"
	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/revlog"
)

const verifyConcurrency = 8

func (a *app) verifyCmd() *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "verify [--stats]",
		Short: "check the integrity of the changelog, the manifest and the files of the tip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := revlog.NewMetrics()
			reg := prometheus.NewRegistry()
			if err := m.Register(reg); err != nil {
				return err
			}

			r, err := a.open(&hg.OpenOptions{Metrics: m})
			if err != nil {
				return err
			}

			revisions, err := verify(cmd.Context(), r)
			if err != nil {
				return err
			}

			a.printf("checked %d revisions\n", revisions)
			if !stats {
				return nil
			}

			families, err := reg.Gather()
			if err != nil {
				return err
			}

			a.printMetrics(families)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "print read statistics")
	return cmd
}

// verify reads every revision reachable from the heads of the changelog,
// the manifest and the filelogs of the files in the tip manifest. It
// returns the number of revisions read.
func verify(ctx context.Context, r *hg.Repository) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cl, err := r.Changelog()
	if err != nil {
		return 0, err
	}
	defer cl.Close()

	var files []string
	if !cl.IsEmpty() {
		if files, err = r.FilesAtRevision(strconv.Itoa(cl.Len() - 1)); err != nil {
			return 0, err
		}
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)

	check := func(open func() (*revlog.Revlog, error)) {
		g.Go(func() error {
			rl, err := open()
			if err != nil {
				return err
			}
			defer rl.Close()

			n, err := verifyRevlog(ctx, rl)
			total.Add(n)
			return err
		})
	}

	check(func() (*revlog.Revlog, error) {
		cl, err := r.Changelog()
		if err != nil {
			return nil, err
		}
		return cl.Revlog, nil
	})

	check(func() (*revlog.Revlog, error) {
		m, err := r.Manifest()
		if err != nil {
			return nil, err
		}
		return m.Revlog, nil
	})

	for _, path := range files {
		check(func() (*revlog.Revlog, error) {
			fl, err := r.Filelog(path)
			if err != nil {
				return nil, err
			}
			return fl.Revlog, nil
		})
	}

	err = g.Wait()
	return total.Load(), err
}

// verifyRevlog reads the ancestors of the heads of rl, checking the hash of
// every text, and makes sure every revision was reached.
func verifyRevlog(ctx context.Context, rl *revlog.Revlog) (int64, error) {
	heads, err := rl.Heads()
	if err != nil {
		return 0, err
	}

	iter, err := revlog.NewAncestorsIterator(rl, heads, 0, true)
	if err != nil {
		return 0, err
	}

	var n int64
	err = iter.ForEach(func(rev plumbing.Revision) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := rl.RevisionData(rev); err != nil {
			return errors.Wrapf(err, "%s: revision %d", rl.IndexPath(), rev)
		}

		n++
		return nil
	})
	if err != nil {
		return n, err
	}

	if n != int64(rl.Len()) {
		return n, plumbing.CorruptedErrorf("%s: %d revisions reachable from heads, %d in index",
			rl.IndexPath(), n, rl.Len())
	}

	return n, nil
}

func (a *app) printMetrics(families []*dto.MetricFamily) {
	table := tablewriter.NewWriter(a.stdout)
	table.SetHeader([]string{"metric", "value"})
	table.SetBorder(false)

	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				table.Append([]string{mf.GetName(), fmt.Sprint(metric.GetCounter().GetValue())})
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				table.Append([]string{mf.GetName() + "_count", fmt.Sprint(h.GetSampleCount())})
				table.Append([]string{mf.GetName() + "_sum", fmt.Sprint(h.GetSampleSum())})
			}
		}
	}

	table.Render()
}
