package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/saldlang/sald/pkg/chunkasm"
	"github.com/saldlang/sald/pkg/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive chunkasm REPL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadVMConfig(cfgFile)
		if err != nil {
			return err
		}
		return runREPL(vm.NewWithConfig(cfg))
	},
}

// runREPL drives a read-assemble-run loop against one persistent VM, so
// globals defined by one entry (DEFINE_GLOBAL) remain visible to the next —
// the same persistent-VM idiom a source-level REPL would use, just fed
// chunkasm text instead of Sald source since there is no parser here.
//
// A block is terminated by a blank line, since chunkasm text has no
// statement-terminator token to detect completion from.
func runREPL(machine *vm.VM) error {
	rl, err := readline.New("sald> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("sald REPL — enter a chunkasm 'function: ...' block, blank line to run it")
	fmt.Println("(:quit or Ctrl-D to exit)")

	var buf strings.Builder
	for {
		prompt := "sald> "
		if buf.Len() > 0 {
			prompt = "....> "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if buf.Len() == 0 {
			switch strings.TrimSpace(line) {
			case ":quit", ":exit":
				return nil
			case "":
				continue
			}
		}

		if strings.TrimSpace(line) == "" {
			evalREPLEntry(machine, buf.String())
			buf.Reset()
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}

func evalREPLEntry(machine *vm.VM, src string) {
	proto, err := chunkasm.Assemble([]byte(src))
	if err != nil {
		fmt.Printf("assemble error: %s\n", err)
		return
	}
	result := machine.Run(proto)
	switch result.Status {
	case vm.Completed:
		fmt.Println(formatValue(result.Value))
	case vm.Suspended:
		fmt.Println("suspended on a Future — no host I/O loop to resolve it in the REPL")
	case vm.Errored:
		fmt.Printf("error: %s\n", result.Err)
	}
}
