// Package main provides heapctl, a small demo and diagnostic front end for
// the TINY/SMALL/LARGE heap allocator.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"strconv"
	"unsafe"

	"github.com/orizon-lang/heapd/internal/allocator"
	"github.com/orizon-lang/heapd/internal/cli"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "show version information")
		showHelp       = flag.Bool("help", false, "show help information")
		jsonOutput     = flag.Bool("json", false, "output version in JSON format")
		debugFlag      = flag.Bool("debug", false, "enable verbose zone lifecycle logging")
		verbose        = flag.Bool("verbose", false, "print progress messages for each step")
		seed           = flag.Int64("seed", 1, "PRNG seed for the churn command")
		configPath     = flag.String("config", "", "load verbose/debug defaults from a JSON config file")
		saveConfigPath = flag.String("save-config", "", "write the effective config to a JSON file after running")
	)

	flag.Parse()

	if *showVersion {
		cli.PrintVersion("heapctl", *jsonOutput)

		return
	}

	args := flag.Args()

	if *showHelp {
		if len(args) > 0 {
			showCommandUsage(args[0])
		} else {
			showUsage()
		}

		return
	}

	logger := cli.NewLogger(*verbose, *debugFlag)

	cfg, err := cli.LoadConfig(*configPath)
	cli.HandleError(err, logger)

	debugEnabled := *debugFlag || cfg.Debug

	h := allocator.NewHeap(
		allocator.WithOutput(os.Stdout),
		allocator.WithLogger(log.New(os.Stderr, "heapctl: ", log.LstdFlags)),
		allocator.WithDebug(debugEnabled),
	)

	switch {
	case len(args) == 0:
		logger.Info("no command given, dumping an empty heap")
	case args[0] == "churn":
		runChurnCommand(h, logger, args, *seed)
	default:
		cli.ExitWithCode(2, "Error: unknown command %q", args[0])
	}

	h.ShowAllocMem()

	if *saveConfigPath != "" {
		cfg.Verbose = *verbose
		cfg.Debug = debugEnabled

		cli.HandleError(cfg.SaveConfig(*saveConfigPath), logger)
	}
}

// runChurnCommand implements `heapctl churn <cycles>`: N randomized
// malloc/free cycles through a real *Heap, so users can observe zone
// creation, splitting, and coalescing under -debug.
func runChurnCommand(h *allocator.Heap, logger *cli.Logger, args []string, seed int64) {
	if err := cli.ValidateArgs(args, 2, "heapctl churn <cycles>"); err != nil {
		cli.ExitWithError("%v", err)
	}

	cycles, err := strconv.Atoi(args[1])
	if err != nil {
		cli.ExitWithError("invalid cycle count %q: %v", args[1], err)
	}

	if len(args) > 2 {
		logger.Warn("ignoring extra arguments after cycle count: %v", args[2:])
	}

	logger.Info("running %d churn cycles with seed %d", cycles, seed)
	runChurn(h, cycles, seed)
	logger.Debug("churn finished, dumping heap")
}

func runChurn(h *allocator.Heap, cycles int, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	live := make([]unsafe.Pointer, 0, cycles)

	for i := 0; i < cycles; i++ {
		switch {
		case len(live) == 0 || rng.Intn(3) != 0:
			n := uintptr(rng.Intn(8192) + 1)

			p := h.Malloc(n)
			if p != nil {
				live = append(live, p)
			}
		default:
			idx := rng.Intn(len(live))
			p := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]

			h.Free(p)
		}
	}

	for _, p := range live {
		h.Free(p)
	}
}

func showUsage() {
	cli.PrintUsage("heapctl", []cli.CommandInfo{
		{Name: "churn <cycles>", Description: "run randomized alloc/free cycles and dump the result"},
	})
}

func showCommandUsage(name string) {
	switch name {
	case "churn":
		cli.PrintCommandUsage("heapctl", cli.CommandInfo{
			Name:        "churn",
			Usage:       "heapctl [-seed N] churn <cycles>",
			Description: "run <cycles> randomized malloc/free cycles, then dump the heap",
			Examples:    []string{"heapctl churn 10000", "heapctl -debug -seed 42 churn 1000"},
			Flags: []cli.FlagInfo{
				{Name: "seed", Usage: "PRNG seed controlling the churn workload", Default: "1"},
			},
		})
	default:
		cli.ExitWithCode(2, "Error: unknown command %q", name)
	}
}
