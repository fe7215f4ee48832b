package hg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/go-hg/go-hg/config"
	format "github.com/go-hg/go-hg/plumbing/format/config"
	"github.com/go-hg/go-hg/plumbing/revlog"
	"github.com/go-hg/go-hg/storage/filesystem"
	"github.com/go-hg/go-hg/utils/trace"
)

const (
	// DotHgDirName is the name of the directory holding a repository.
	DotHgDirName = ".hg"

	storeDirName     = "store"
	requiresFileName = "requires"
	sharedPathFile   = "sharedpath"
	hgrcFileName     = "hgrc"
	userHgrcFileName = ".hgrc"
)

var (
	// ErrRepositoryNotExists is returned when no `.hg` directory is found.
	ErrRepositoryNotExists = errors.New("repository does not exist")
	// ErrSharedRootUnset is returned when opening a shared repository
	// without OpenOptions.SharedRoot.
	ErrSharedRootUnset = errors.New("shared repository needs OpenOptions.SharedRoot")
)

// Repository is a Mercurial repository opened for reading.
type Repository struct {
	dotHg        billy.Filesystem
	store        *filesystem.Storage
	nodemapStore *filesystem.Storage
	requirements filesystem.Requirements
	config       *config.Config
	metrics      *revlog.Metrics
}

// PlainOpen opens the repository whose working directory is path, reading
// the hgrc file of the current user too.
func PlainOpen(path string, o *OpenOptions) (*Repository, error) {
	if o == nil {
		o = &OpenOptions{}
	}

	dotHgPath := filepath.Join(path, DotHgDirName)
	fi, err := os.Stat(dotHgPath)
	if os.IsNotExist(err) || (err == nil && !fi.IsDir()) {
		return nil, errors.Wrapf(ErrRepositoryNotExists, "%s", path)
	}

	if err != nil {
		return nil, err
	}

	opts := *o
	if opts.SharedRoot == nil {
		opts.SharedRoot = func(sharedPath string) (billy.Filesystem, error) {
			if !filepath.IsAbs(sharedPath) {
				sharedPath = filepath.Join(dotHgPath, sharedPath)
			}

			return osfs.New(sharedPath), nil
		}
	}

	global := format.New()
	if home, err := os.UserHomeDir(); err == nil {
		if global, err = config.ReadFile(osfs.New(home), userHgrcFileName); err != nil {
			return nil, err
		}
	}

	return open(osfs.New(dotHgPath), &opts, global)
}

// Open opens the repository stored in dotHg, the `.hg` directory.
func Open(dotHg billy.Filesystem, o *OpenOptions) (*Repository, error) {
	if o == nil {
		o = &OpenOptions{}
	}

	return open(dotHg, o, format.New())
}

func open(dotHg billy.Filesystem, o *OpenOptions, global *format.Config) (*Repository, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	reqs, err := filesystem.LoadRequirements(filesystem.NewStorage(dotHg, filesystem.Options{}), requiresFileName)
	if err != nil {
		return nil, errors.Wrap(err, "reading requirements")
	}

	storeRoot := dotHg
	if reqs.Has(filesystem.SharedRequirement) || reqs.Has(filesystem.RelativeSharedRequirement) {
		if storeRoot, err = openSharedRoot(dotHg, o); err != nil {
			return nil, err
		}
	}

	storeFS, err := storeRoot.Chroot(storeDirName)
	if err != nil {
		return nil, err
	}

	if reqs.Has(filesystem.ShareSafeRequirement) {
		storeReqs, err := filesystem.LoadRequirements(filesystem.NewStorage(storeFS, filesystem.Options{}), requiresFileName)
		if err != nil {
			return nil, errors.Wrap(err, "reading store requirements")
		}

		reqs.Add(storeReqs)
	}

	if err := reqs.Check(); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(dotHg, o.Config, global)
	if err != nil {
		return nil, err
	}

	trace.General.Printf("opened repository, requirements %s", strings.Join(reqs.List(), ","))
	return &Repository{
		dotHg:        dotHg,
		store:        filesystem.NewStorage(storeFS, filesystem.Options{UseMmap: cfg.Revlog.Mmap.IsEnabled()}),
		nodemapStore: filesystem.NewStorage(storeFS, filesystem.Options{UseMmap: cfg.Nodemap.Mmap.IsEnabled()}),
		requirements: reqs,
		config:       cfg,
		metrics:      o.Metrics,
	}, nil
}

func openSharedRoot(dotHg billy.Filesystem, o *OpenOptions) (billy.Filesystem, error) {
	b, err := util.ReadFile(dotHg, sharedPathFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", sharedPathFile)
	}

	if o.SharedRoot == nil {
		return nil, ErrSharedRootUnset
	}

	sharedPath := strings.TrimRight(string(b), "\r\n")
	trace.General.Printf("using the store of the shared repository at %s", sharedPath)
	return o.SharedRoot(sharedPath)
}

// loadConfig merges, by decreasing precedence, the programmatic settings,
// the repository hgrc, the user hgrc and the defaults.
func loadConfig(dotHg billy.Filesystem, override *config.Config, global *format.Config) (*config.Config, error) {
	local, err := config.ReadFile(dotHg, hgrcFileName)
	if err != nil {
		return nil, err
	}

	m := format.NewMerged()
	m.SetLocalConfig(local)
	m.SetScopedConfig(format.GlobalScope, global)

	fromFiles, err := config.FromMerged(m)
	if err != nil {
		return nil, errors.Wrap(err, "reading hgrc")
	}

	cfg := *override
	cfg.Raw = fromFiles.Raw
	if err := cfg.Merge(fromFiles); err != nil {
		return nil, err
	}

	if err := cfg.Merge(config.Default()); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Requirements returns the features the repository uses.
func (r *Repository) Requirements() filesystem.Requirements {
	return r.requirements
}

// Config returns the settings in use.
func (r *Repository) Config() *config.Config {
	return r.config
}

// Store returns the storage of the revlogs.
func (r *Repository) Store() *filesystem.Storage {
	return r.store
}

func (r *Repository) revlogOptions() revlog.Options {
	return revlog.Options{
		CacheEntries:   max(r.config.Revlog.CacheEntries, 0),
		Metrics:        r.metrics,
		UseNodemap:     r.config.Nodemap.Persistent.IsEnabled(),
		Requirements:   r.requirements,
		NodemapStorage: r.nodemapStore,
	}
}

// Changelog opens the changelog. It must be closed by the caller.
func (r *Repository) Changelog() (*revlog.Changelog, error) {
	return revlog.OpenChangelog(r.store, r.revlogOptions())
}

// Manifest opens the manifest. It must be closed by the caller.
func (r *Repository) Manifest() (*revlog.Manifest, error) {
	return revlog.OpenManifest(r.store, r.revlogOptions())
}

// Filelog opens the filelog of the tracked file at path. It must be closed
// by the caller.
func (r *Repository) Filelog(path string) (*revlog.Filelog, error) {
	return revlog.OpenFilelog(r.store, path, r.revlogOptions())
}
