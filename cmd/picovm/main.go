// picovm CLI - drives a picovm heap from scripts or an interactive REPL
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/picovm/config"
	"github.com/chazu/picovm/stats"
	"github.com/chazu/picovm/vm"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output (log every collection)")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	configDir := flag.String("c", "", "Directory containing picovm.toml (default: search upward from cwd)")
	statsDB := flag.String("stats-db", "", "SQLite file to record collection stats to (overrides picovm.toml)")
	threshold := flag.Int("threshold", 0, "Initial collection threshold (overrides picovm.toml)")
	stackCap := flag.Int("stack-capacity", 0, "Root stack capacity (overrides picovm.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: picovm [options] [scripts...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs picovm scripts (one command per line), then an optional REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  picovm -i                      # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  picovm demo.pvm                # Run a script\n")
		fmt.Fprintf(os.Stderr, "  picovm -v -stats-db gc.db demo.pvm\n")
		fmt.Fprintf(os.Stderr, "\nCommands: int N, pair, pop, collect, info, dump PATH, stats [N], help\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verbosity := cfg.Log.Verbosity
	if *verbose && verbosity < 1 {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	opts := vm.Options{
		Threshold:     cfg.Heap.Threshold,
		StackCapacity: cfg.Stack.Capacity,
	}
	if *threshold > 0 {
		opts.Threshold = *threshold
	}
	if *stackCap > 0 {
		opts.StackCapacity = *stackCap
	}

	v := vm.NewWithOptions(opts)
	defer v.Close()

	s := &session{vm: v, out: os.Stdout}

	dbPath := cfg.DatabasePath()
	if *statsDB != "" {
		dbPath = *statsDB
	}
	if dbPath != "" {
		rec, err := stats.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer rec.Close()
		s.rec = rec
		v.SetCollectHook(rec.Hook(func(err error) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}))
	}

	for _, path := range flag.Args() {
		if err := runScript(s, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	if *interactive || flag.NArg() == 0 {
		runREPL(s)
	}
}

// loadConfig loads picovm.toml from dir, or searches upward from the
// working directory when dir is empty. Missing configuration is not an
// error; defaults apply.
func loadConfig(dir string) (*config.Config, error) {
	if dir != "" {
		return config.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

func runScript(s *session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.run(f, true)
}

func runREPL(s *session) {
	fmt.Println("picovm REPL (type 'exit' to quit, 'help' for commands)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := s.exec(line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
	fmt.Println()
}
