// Package assets embeds small fixtures bundled with the module itself, kept
// outside internal/ so both cmd/ binaries and package examples can reach
// them without an import cycle (the same reasoning the original embed
// package here existed for: go:embed can't climb above its own package
// directory).
package assets

import "embed"

// CorpusFS contains a tiny bundled text corpus used by runnable examples
// and smoke tests that need real training input without fetching one.
//
//go:embed corpus/sample.txt
var CorpusFS embed.FS

// SampleCorpus returns the bundled example corpus's contents.
func SampleCorpus() ([]byte, error) {
	return CorpusFS.ReadFile("corpus/sample.txt")
}
