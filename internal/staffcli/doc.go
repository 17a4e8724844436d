// Package staffcli is the staff console for the review API: a small REPL
// over gRPC for listing, inspecting and deciding applications, plus helpers
// for minting staff tokens and bridge token hashes.
package staffcli
