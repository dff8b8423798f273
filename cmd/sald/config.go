package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/saldlang/sald/pkg/vm"
)

// runConfig mirrors the run-tuning knobs a sald.toml may set. It has no
// bearing on program semantics — only on GC pacing and initial stack size.
// A knob the file leaves out keeps vm.Config's zero value (the VM default);
// a path that cannot be read is an error (see loadVMConfig).
type runConfig struct {
	StackSize  int `toml:"stack_size"`
	SweepEvery int `toml:"sweep_every"`
}

// loadVMConfig reads path (if non-empty) as a sald.toml document and
// translates it into a vm.Config. An empty path returns the zero Config.
func loadVMConfig(path string) (vm.Config, error) {
	if path == "" {
		return vm.Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return vm.Config{}, err
	}
	var rc runConfig
	if err := toml.Unmarshal(data, &rc); err != nil {
		return vm.Config{}, err
	}
	return vm.Config{InitialStackSize: rc.StackSize, SweepEvery: rc.SweepEvery}, nil
}
