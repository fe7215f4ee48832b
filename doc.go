// Package hg is a read-mostly implementation of the Mercurial repository
// storage, written in pure Go.
//
// A Repository gives access to the revlogs of a `.hg` directory: the
// changelog, the manifest and one filelog per tracked file. The lower level
// packages under plumbing parse their on-disk formats and can be used on
// their own.
package hg
