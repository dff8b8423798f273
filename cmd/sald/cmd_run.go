package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saldlang/sald/internal/errs"
	"github.com/saldlang/sald/pkg/chunkasm"
	"github.com/saldlang/sald/pkg/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <file.sasm>",
	Short: "Assemble and run a chunkasm source file",
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

		cfg, err := loadVMConfig(cfgFile)
		if err != nil {
			return err
		}
		machine := vm.NewWithConfig(cfg)
		result := machine.Run(proto)
		switch result.Status {
		case vm.Completed:
			fmt.Println(formatValue(result.Value))
			return nil
		case vm.Suspended:
			return fmt.Errorf("program suspended on a Future with no host I/O loop to resolve it")
		default:
			return result.Err
		}
	},
}
