package filesystem

import (
	"bytes"
	"encoding/hex"

	"github.com/pjbgf/sha1cd"
)

// maxStorePathLen is the longest store path written with the reversible
// encoding, longer ones fall back to the hashed one.
const maxStorePathLen = 120

const (
	dirPrefixLen = 8
	maxShortDirs = 68
)

var (
	winReserved3 = [][]byte{[]byte("aux"), []byte("con"), []byte("prn"), []byte("nul")}
	winReserved4 = [][]byte{[]byte("com"), []byte("lpt")}
)

// EncodePath maps a path relative to the store, such as `data/foo.txt.i`,
// to the name the file has on disk in a fncache+dotencode store.
//
// Upper case letters and underscores are escaped with a leading '_', bytes
// that are not portable are written `~xx`, and names reserved on Windows
// are altered. Paths that would still be longer than 120 bytes are hashed
// under `dh/`.
func EncodePath(p string) string {
	dired := encodeDir([]byte(p))
	encoded := auxEncode(basicEncode(dired))
	if len(encoded) <= maxStorePathLen {
		return string(encoded)
	}

	return string(hashEncode(dired))
}

// encodeDir adds a `.hg` suffix to directories whose names end like store
// files do, so that `foo.i/` cannot be mistaken for a revlog.
func encodeDir(p []byte) []byte {
	p = bytes.ReplaceAll(p, []byte(".hg/"), []byte(".hg.hg/"))
	p = bytes.ReplaceAll(p, []byte(".i/"), []byte(".i.hg/"))
	return bytes.ReplaceAll(p, []byte(".d/"), []byte(".d.hg/"))
}

func isReserved(c byte) bool {
	if c < 32 || c >= 126 {
		return true
	}

	return bytes.IndexByte([]byte(`\:*?"<>|`), c) >= 0
}

func appendHexEscape(dst []byte, c byte) []byte {
	const digits = "0123456789abcdef"
	return append(dst, '~', digits[c>>4], digits[c&0xf])
}

func basicEncode(p []byte) []byte {
	out := make([]byte, 0, len(p)+len(p)/4)
	for _, c := range p {
		switch {
		case 'A' <= c && c <= 'Z':
			out = append(out, '_', c+('a'-'A'))
		case c == '_':
			out = append(out, '_', '_')
		case isReserved(c):
			out = appendHexEscape(out, c)
		default:
			out = append(out, c)
		}
	}

	return out
}

func lowerEncode(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, c := range p {
		switch {
		case 'A' <= c && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case isReserved(c):
			out = appendHexEscape(out, c)
		default:
			out = append(out, c)
		}
	}

	return out
}

// auxEncode escapes every path component that Windows would reject: a
// leading or trailing dot or space, and reserved device names.
func auxEncode(p []byte) []byte {
	parts := bytes.Split(p, []byte{'/'})
	for i, n := range parts {
		parts[i] = auxEncodeComponent(n)
	}

	return bytes.Join(parts, []byte{'/'})
}

func auxEncodeComponent(n []byte) []byte {
	if len(n) == 0 {
		return n
	}

	var out []byte
	if n[0] == '.' || n[0] == ' ' {
		out = appendHexEscape(make([]byte, 0, len(n)+2), n[0])
		out = append(out, n[1:]...)
	} else {
		l := bytes.IndexByte(n, '.')
		if l == -1 {
			l = len(n)
		}

		if isWinReserved(n, l) {
			out = append(make([]byte, 0, len(n)+2), n[:2]...)
			out = appendHexEscape(out, n[2])
			out = append(out, n[3:]...)
		} else {
			out = n
		}
	}

	if last := out[len(out)-1]; last == '.' || last == ' ' {
		out = appendHexEscape(append([]byte(nil), out[:len(out)-1]...), last)
	}

	return out
}

func isWinReserved(n []byte, stemLen int) bool {
	switch stemLen {
	case 3:
		for _, r := range winReserved3 {
			if bytes.Equal(n[:3], r) {
				return true
			}
		}
	case 4:
		if n[3] < '1' || n[3] > '9' {
			return false
		}
		for _, r := range winReserved4 {
			if bytes.Equal(n[:3], r) {
				return true
			}
		}
	}

	return false
}

// hashEncode builds the non reversible name of a long path: shortened
// directories, as much of the basename as fits, the SHA-1 of the path and
// its extension.
func hashEncode(dired []byte) []byte {
	h := sha1cd.New()
	h.Write(dired)
	digest := make([]byte, hex.EncodedLen(h.Size()))
	hex.Encode(digest, h.Sum(nil))

	// Drop the leading `data/` or `meta/`.
	lowered := lowerEncode(dired[min(len(dired), 5):])
	parts := bytes.Split(auxEncode(lowered), []byte{'/'})
	basename := parts[len(parts)-1]
	ext := extension(basename)

	var dirs []byte
	for _, p := range parts[:len(parts)-1] {
		d := p
		if len(d) > dirPrefixLen {
			d = d[:dirPrefixLen]
		}
		if len(d) > 0 && (d[len(d)-1] == '.' || d[len(d)-1] == ' ') {
			d = append(append([]byte(nil), d[:len(d)-1]...), '_')
		}

		if len(dirs) > 0 {
			if len(dirs)+1+len(d) > maxShortDirs {
				break
			}
			dirs = append(dirs, '/')
		}
		dirs = append(dirs, d...)
	}

	if len(dirs) > 0 {
		dirs = append(dirs, '/')
	}

	res := make([]byte, 0, maxStorePathLen)
	res = append(res, "dh/"...)
	res = append(res, dirs...)
	fill := maxStorePathLen - (len(res) + len(digest) + len(ext))
	if fill > 0 {
		if fill > len(basename) {
			fill = len(basename)
		}
		res = append(res, basename[:fill]...)
	}
	res = append(res, digest...)
	return append(res, ext...)
}

// extension returns the suffix of name starting at its last dot, empty
// when name has none or only leading dots.
func extension(name []byte) []byte {
	i := bytes.LastIndexByte(name, '.')
	if i <= 0 {
		return nil
	}

	for _, c := range name[:i] {
		if c != '.' {
			return name[i:]
		}
	}

	return nil
}
