package hg

import (
	"github.com/go-git/go-billy/v5"

	"github.com/go-hg/go-hg/config"
	"github.com/go-hg/go-hg/plumbing/revlog"
)

// OpenOptions describes how a repository is opened.
type OpenOptions struct {
	// Config overrides the settings read from hgrc files. Its unset
	// fields are taken from the files, then from config.Default.
	Config *config.Config
	// Metrics collects statistics about revlog reads when set.
	Metrics *revlog.Metrics
	// SharedRoot opens the `.hg` directory a shared repository points to,
	// given the content of its `sharedpath` file. Shared repositories
	// cannot be opened without it. PlainOpen sets it.
	SharedRoot func(sharedPath string) (billy.Filesystem, error)
}

// Validate sets the default values of the options.
func (o *OpenOptions) Validate() error {
	if o.Config == nil {
		o.Config = config.NewConfig()
	}

	return nil
}
