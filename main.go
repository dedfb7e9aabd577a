package main

import (
	"fmt"
	"os"

	"kbedit/internal/cli"
)

// These are variables so that they can be set during the build time.
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

func main() {
	os.Exit(cli.Execute(fmt.Sprintf("kbedit %s (%s) on %s", BuildVersion, Commit, BuildDate)))
}
