package main

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/go-hg/go-hg"
	"github.com/go-hg/go-hg/config"
	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/nodemap"
	"github.com/go-hg/go-hg/plumbing/revlog"
	"github.com/go-hg/go-hg/storage/filesystem"
)

func (a *app) debugNodemapCmd() *cobra.Command {
	var f revlogFlags
	cmd := &cobra.Command{
		Use:   "debugnodemap",
		Short: "inspect and manipulate persistent node maps",
	}

	dump := &cobra.Command{
		Use:   "dump -c|-m",
		Short: "write the node map of a revlog, built from its index, to stdout",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.withRevlog(&f, nil, func(_ *hg.Repository, rl *revlog.Revlog) error {
				nt, err := nodemap.Build(rl.Index())
				if err != nil {
					return err
				}

				_, data := nt.IntoReadonlyAndAddedBytes()
				_, err = a.stdout.Write(data)
				return err
			})
		},
	}

	create := &cobra.Command{
		Use:   "create -c|-m",
		Short: "persist the node map of a revlog",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.withRevlog(&f, nil, func(r *hg.Repository, rl *revlog.Revlog) error {
				if !r.Requirements().Has(filesystem.PersistentNodemapRequirement) {
					return errors.Newf("repository lacks the %s requirement", filesystem.PersistentNodemapRequirement)
				}

				if rl.IsEmpty() {
					return nil
				}

				nt, err := nodemap.Build(rl.Index())
				if err != nil {
					return err
				}

				d, err := nodemap.Persist(r.Store(), rl.IndexPath(), rl.Docket(), nt, rl.Index())
				if err != nil {
					return err
				}

				a.printf("uid: %s\ntip-rev: %d\ndata-length: %d\n", d.UID, d.TipRev, d.DataLength)
				return nil
			})
		},
	}

	query := &cobra.Command{
		Use:   "query -c|-m PREFIX...",
		Short: "resolve node prefixes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withRevlog(&f, nil, func(_ *hg.Repository, rl *revlog.Revlog) error {
				for _, arg := range args {
					prefix, err := plumbing.NodePrefixFromHex(arg)
					if err != nil {
						return err
					}

					rev, err := rl.NodeRevision(prefix)
					if err != nil {
						return err
					}

					node, err := rl.Node(rev)
					if err != nil {
						return err
					}

					n, err := rl.UniquePrefixLen(node)
					if err != nil {
						return err
					}

					a.printf("%s %d %s\n", arg, rev, node.String()[:n])
				}

				return nil
			})
		},
	}

	var lookups int
	bench := &cobra.Command{
		Use:   "bench -c|-m",
		Short: "compare node lookups with and without the persisted node map",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			for _, persistent := range []config.Toggle{config.Disabled, config.Enabled} {
				o := &hg.OpenOptions{Config: config.NewConfig()}
				o.Config.Nodemap.Persistent = persistent

				err := a.withRevlog(&f, o, func(_ *hg.Repository, rl *revlog.Revlog) error {
					hist, err := benchLookups(rl, lookups)
					if err != nil {
						return err
					}

					a.printf("nodemap=%-5t lookups=%d mean=%s p50=%s p99=%s max=%s\n",
						rl.Nodemap() != nil, hist.TotalCount(),
						time.Duration(hist.Mean()),
						time.Duration(hist.ValueAtQuantile(50)),
						time.Duration(hist.ValueAtQuantile(99)),
						time.Duration(hist.Max()))
					return nil
				})
				if err != nil {
					return err
				}
			}

			return nil
		},
	}
	bench.Flags().IntVarP(&lookups, "lookups", "n", 1000, "number of lookups")

	for _, c := range []*cobra.Command{dump, create, query, bench} {
		f.register(c)
		cmd.AddCommand(c)
	}

	return cmd
}

// withRevlog opens the repository and the revlog selected by f, and calls
// fn with them.
func (a *app) withRevlog(f *revlogFlags, o *hg.OpenOptions, fn func(*hg.Repository, *revlog.Revlog) error) error {
	r, err := a.open(o)
	if err != nil {
		return err
	}

	rl, err := f.open(r, "")
	if err != nil {
		return err
	}

	return errors.CombineErrors(fn(r, rl), rl.Close())
}

// benchLookups resolves the full node of n revisions of rl, spread over
// the whole revlog, and returns the latency distribution in nanoseconds.
func benchLookups(rl *revlog.Revlog, n int) (*hdrhistogram.Histogram, error) {
	hist := hdrhistogram.New(1, int64(time.Minute), 3)
	if rl.IsEmpty() || n <= 0 {
		return hist, nil
	}

	for i := 0; i < n; i++ {
		rev := plumbing.Revision(i * 7919 % rl.Len())
		node, err := rl.Node(rev)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		got, err := rl.RevisionOf(node)
		elapsed := time.Since(start)
		if err != nil {
			return nil, err
		}

		if got != rev {
			return nil, errors.Newf("node %s resolved to %d instead of %d", node, got, rev)
		}

		if err := hist.RecordValue(max(elapsed.Nanoseconds(), 1)); err != nil {
			return nil, err
		}
	}

	return hist, nil
}
