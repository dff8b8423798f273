// Command sald is the CLI front-end for the Sald VM: it runs and
// disassembles pkg/chunkasm sources and hosts an interactive REPL. There is
// no lexer or parser here — spec.md names both external collaborators — so
// every subcommand's input is chunkasm text, not Sald source.
package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "sald",
	SilenceUsage: true,
	Short:        "Sald is a stack-based bytecode VM for a small class-based scripting language",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a sald.toml run configuration")
	rootCmd.AddCommand(runCmd, disasmCmd, replCmd, versionCmd)
}
