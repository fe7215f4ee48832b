package filesystem

import (
	"bytes"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
)

// Requirement names found in `requires` files.
const (
	RevlogV1Requirement          = "revlogv1"
	StoreRequirement             = "store"
	FncacheRequirement           = "fncache"
	DotencodeRequirement         = "dotencode"
	GeneralDeltaRequirement      = "generaldelta"
	SharedRequirement            = "shared"
	RelativeSharedRequirement    = "relshared"
	ShareSafeRequirement         = "share-safe"
	SparseRevlogRequirement      = "sparserevlog"
	RevlogCompressionZstd        = "revlog-compression-zstd"
	PersistentNodemapRequirement = "persistent-nodemap"
)

var (
	// RequiredFeatures must all be present for a repository to be opened.
	RequiredFeatures = []string{
		RevlogV1Requirement,
		StoreRequirement,
		FncacheRequirement,
		DotencodeRequirement,
	}

	// SupportedFeatures may be present or not.
	SupportedFeatures = []string{
		GeneralDeltaRequirement,
		SharedRequirement,
		ShareSafeRequirement,
		SparseRevlogRequirement,
		RelativeSharedRequirement,
		RevlogCompressionZstd,
		PersistentNodemapRequirement,
	}

	// ErrUnsupportedRequirement is returned when a repository needs a
	// feature this package does not implement, or lacks a mandatory one.
	ErrUnsupportedRequirement = errors.New("unsupported repository requirement")
)

// Requirements is the set of features listed in a `requires` file.
type Requirements map[string]struct{}

// ParseRequirements parses the content of a `requires` file: one feature
// name per line, each starting with an ASCII alphanumeric character.
func ParseRequirements(b []byte) (Requirements, error) {
	reqs := make(Requirements)
	for _, line := range bytes.Split(b, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}

		if !isASCIIAlnum(line[0]) || !isASCII(line) {
			return nil, plumbing.CorruptedErrorf("parse error in 'requires' file")
		}

		reqs[string(line)] = struct{}{}
	}

	return reqs, nil
}

// LoadRequirements reads the `requires` file at p. A missing file is
// treated as an empty one, as very old repositories have none.
func LoadRequirements(s *Storage, p string) (Requirements, error) {
	data, ok, err := s.ReadIfExists(p)
	if err != nil {
		return nil, err
	}

	if !ok {
		return make(Requirements), nil
	}

	return ParseRequirements(data)
}

// Has tells whether the feature is required.
func (r Requirements) Has(feature string) bool {
	_, ok := r[feature]
	return ok
}

// Add merges other into r.
func (r Requirements) Add(other Requirements) {
	for k := range other {
		r[k] = struct{}{}
	}
}

// List returns the sorted feature names.
func (r Requirements) List() []string {
	list := make([]string, 0, len(r))
	for k := range r {
		list = append(list, k)
	}

	sort.Strings(list)
	return list
}

// Check validates r against RequiredFeatures and SupportedFeatures.
func (r Requirements) Check() error {
	supported := make(map[string]bool, len(RequiredFeatures)+len(SupportedFeatures))
	for _, f := range RequiredFeatures {
		supported[f] = true
	}
	for _, f := range SupportedFeatures {
		supported[f] = true
	}

	var unknown []string
	for _, f := range r.List() {
		if !supported[f] {
			unknown = append(unknown, f)
		}
	}

	if len(unknown) > 0 {
		return errors.Wrapf(ErrUnsupportedRequirement,
			"repository requires feature unknown to this implementation: %s",
			strings.Join(unknown, ", "))
	}

	var missing []string
	for _, f := range RequiredFeatures {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}

	if len(missing) > 0 {
		return errors.Wrapf(ErrUnsupportedRequirement,
			"repository is missing feature required by this implementation: %s",
			strings.Join(missing, ", "))
	}

	return nil
}

func isASCIIAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}

	return true
}
