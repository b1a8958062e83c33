package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/picovm/stats"
	"github.com/chazu/picovm/vm"
	"github.com/chazu/picovm/vm/dump"
)

// session executes script/REPL commands against one VM.
type session struct {
	vm  *vm.VM
	rec *stats.Recorder // nil when stats recording is disabled
	out io.Writer
}

// run executes commands from r, one per line. In strict mode (scripts) the
// first failing command aborts; the REPL reports errors and keeps going.
func (s *session) run(r io.Reader, strict bool) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.exec(line); err != nil {
			if strict {
				return fmt.Errorf("line %d: %s: %w", lineNo, line, err)
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// exec runs a single command.
func (s *session) exec(line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "int":
		if len(args) != 1 {
			return fmt.Errorf("usage: int N")
		}
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad integer %q: %w", args[0], err)
		}
		obj, err := s.vm.PushInt(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "pushed %s (%d live)\n", formatObject(obj), s.vm.Count())

	case "pair":
		obj, err := s.vm.MakePair()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "pushed %s (%d live)\n", formatObject(obj), s.vm.Count())

	case "pop":
		obj, err := s.vm.Pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "popped %s\n", formatObject(obj))

	case "collect":
		st := s.vm.Collect()
		fmt.Fprintf(s.out, "collected %d, %d remaining, next threshold %d\n",
			st.Collected, st.Live, st.Threshold)

	case "info":
		fmt.Fprintf(s.out, "live %d, threshold %d, roots %d/%d, collections %d\n",
			s.vm.Count(), s.vm.Threshold(), s.vm.StackSize(), s.vm.StackCapacity(),
			s.vm.CollectCount())

	case "dump":
		if len(args) != 1 {
			return fmt.Errorf("usage: dump PATH")
		}
		if err := dump.WriteFile(args[0], s.vm.Snapshot()); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "wrote %d objects to %s\n", s.vm.Count(), args[0])

	case "stats":
		return s.printStats(args)

	case "help":
		s.printHelp()

	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func (s *session) printStats(args []string) error {
	if s.rec == nil {
		return fmt.Errorf("stats recording is disabled (set stats.database in picovm.toml or pass -stats-db)")
	}
	n := 5
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("usage: stats [N]")
		}
		n = v
	}
	totals, err := s.rec.History()
	if err != nil {
		return err
	}
	entries, err := s.rec.Recent(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d cycles recorded, %d objects collected in total\n",
		totals.Cycles, totals.Collected)
	for _, e := range entries {
		fmt.Fprintf(s.out, "  #%d %s: collected %d, %d remaining (%.0fus)\n",
			e.ID, e.Timestamp.Format("15:04:05.000"), e.Collected, e.Live,
			float64(e.Duration.Microseconds()))
	}
	return nil
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  int N        allocate an integer object and push it")
	fmt.Fprintln(s.out, "  pair         pop two roots, push a pair of them")
	fmt.Fprintln(s.out, "  pop          pop the top root")
	fmt.Fprintln(s.out, "  collect      run a collection now")
	fmt.Fprintln(s.out, "  info         show live count, threshold, root stack")
	fmt.Fprintln(s.out, "  dump PATH    write a heap snapshot to PATH")
	fmt.Fprintln(s.out, "  stats [N]    show recorded collection history")
	fmt.Fprintln(s.out, "  help         show this help")
	fmt.Fprintln(s.out, "  exit, quit   leave the REPL")
}

// formatObject renders an object for the REPL: ints as their value, pairs
// as (head, tail). Shared structure and cycles print as "..." on revisit.
func formatObject(obj *vm.Object) string {
	var b strings.Builder
	writeObject(&b, obj, make(map[*vm.Object]bool))
	return b.String()
}

func writeObject(b *strings.Builder, obj *vm.Object, seen map[*vm.Object]bool) {
	if obj == nil {
		b.WriteString("nil")
		return
	}
	if seen[obj] {
		b.WriteString("...")
		return
	}
	seen[obj] = true
	switch obj.Kind() {
	case vm.ObjInt:
		fmt.Fprintf(b, "%d", obj.Int())
	case vm.ObjPair:
		b.WriteString("(")
		writeObject(b, obj.Head(), seen)
		b.WriteString(", ")
		writeObject(b, obj.Tail(), seen)
		b.WriteString(")")
	}
}
