// Command relaxir inspects the Relax IR object model and runs construction
// scenarios against the local engine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/relaxir/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
