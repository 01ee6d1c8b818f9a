package main

import (
	"flag"
	"testing"

	"github.com/Noofbiz/gpcvalidate/config"
)

func TestSplitList(t *testing.T) {
	got := splitList(" x1, ,x2 ")
	if len(got) != 2 || got[0] != "x1" || got[1] != "x2" {
		t.Fatalf("splitList = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Fatalf("splitList(\"\") = %v, want nil", got)
	}
}

func TestParseInts(t *testing.T) {
	got, err := parseInts("10, 20")
	if err != nil {
		t.Fatalf("parseInts: %v", err)
	}
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Fatalf("parseInts = %v", got)
	}
	if _, err := parseInts("10,x"); err == nil {
		t.Fatal("expected error for non-integer entry")
	}
}

func parseCLI(t *testing.T, args ...string) (*cliFlags, map[string]bool) {
	t.Helper()
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var cli cliFlags
	cli.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return &cli, set
}

func TestFlagsOverrideSliceOutputs(t *testing.T) {
	cli, set := parseCLI(t, "-mode", "slice", "-slice-output-idx", "0, 2", "-vars", "x1", "-n-grid", "7")
	cfg := config.Default()
	if err := cli.apply(cfg, set); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Mode != config.ModeSlice {
		t.Fatalf("mode = %q", cfg.Mode)
	}
	if len(cfg.Slice.OutputIdx) != 2 || cfg.Slice.OutputIdx[0] != 0 || cfg.Slice.OutputIdx[1] != 2 {
		t.Fatalf("slice output indices = %v", cfg.Slice.OutputIdx)
	}
	if len(cfg.Slice.Vars) != 1 || cfg.Slice.Vars[0] != "x1" || cfg.Slice.NGrid[0] != 7 {
		t.Fatalf("slice = %+v", cfg.Slice)
	}
	// -output-idx only touches the Monte-Carlo setting
	if cfg.MC.OutputIdx != 0 {
		t.Fatalf("mc output index = %d", cfg.MC.OutputIdx)
	}
}

func TestUnsetFlagsKeepRunFile(t *testing.T) {
	cli, set := parseCLI(t, "-output-idx", "1")
	cfg := config.Default()
	want := cfg.Slice.OutputIdx
	if err := cli.apply(cfg, set); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.MC.OutputIdx != 1 {
		t.Fatalf("mc output index = %d", cfg.MC.OutputIdx)
	}
	if len(cfg.Slice.OutputIdx) != len(want) || cfg.Slice.OutputIdx[0] != want[0] {
		t.Fatalf("slice output indices changed: %v", cfg.Slice.OutputIdx)
	}
	if cfg.MC.Samples != 10000 || cfg.Output != "output/validation" {
		t.Fatalf("run file values overwritten: samples=%d out=%q", cfg.MC.Samples, cfg.Output)
	}

	cli, set = parseCLI(t, "-slice-output-idx", "a")
	if err := cli.apply(config.Default(), set); err == nil {
		t.Fatal("expected error for non-integer output index")
	}
}
