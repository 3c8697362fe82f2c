// stampbook reconciles campus tour stamps and reports tour completion.
//
// Usage:
//
//	stampbook status [--set name] [--id identifier]
//	stampbook visit <spot> [--id identifier]
//	stampbook survey submit --answers <json|@file>
//	stampbook survey sync
//	stampbook serve [--addr :8080]
//	stampbook test <scenarios-dir> [--update] [--filter glob]
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stampbook/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
