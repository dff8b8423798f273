package main

import (
	"fmt"
	"os"

	"github.com/saldlang/sald/internal/errs"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if e, ok := err.(*errs.Error); ok {
			os.Exit(e.ExitCode())
		}
		os.Exit(errs.ExitCodeBadUsage)
	}
}
