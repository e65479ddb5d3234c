// Command mscp drives the social ledger programs from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/OpenMSCP/mscp-sdk/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mscp:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
