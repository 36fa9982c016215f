// Package mediatypes classifies catalogued files by extension.
//
// The classification is display-only: the indexer catalogues every regular
// file regardless of kind, and the web layer uses the kind for list badges
// and to decide whether an image preview can be generated.
package mediatypes
