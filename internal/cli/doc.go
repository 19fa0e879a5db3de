// Package cli implements the fieldmap command line. Each file registers one sub-command
// (serve, exec, list-tools, placeholders); configuration loading and registry wiring that
// the commands share live in shared.go.
package cli
