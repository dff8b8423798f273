package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saldlang/sald/internal/errs"
	"github.com/saldlang/sald/pkg/chunkasm"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.sasm>",
	Short: "Assemble a chunkasm source file and print its canonical disassembly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		proto, err := chunkasm.Assemble(data)
		if err != nil {
			return errs.New(errs.SyntaxError, "%s", err)
		}
		fmt.Print(chunkasm.Disassemble(proto))
		return nil
	},
}
