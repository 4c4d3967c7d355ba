// Package public holds the sample text files offered by the lesson page.
// The same directory is served from disk by cmd/fileserver.
package public

import "embed"

// Samples contains wap.txt and hello.txt.
//
//go:embed wap.txt hello.txt
var Samples embed.FS
