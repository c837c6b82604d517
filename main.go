package main

import (
	"os"

	"github.com/codesentry/codesentry/cli"
)

// Version information, set by goreleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	c := cli.New()
	c.SetVersion(version, commit, date)
	os.Exit(c.Run(os.Args))
}
