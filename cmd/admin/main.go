package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "polydros.ai/internal/persistence/log"
	"polydros.ai/internal/persistence/runfile"
	"polydros.ai/internal/sim/logic/ids"
	"polydros.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "export":
			exportCmd(os.Args[2:])
			return
		case "events":
			eventsCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "run":
			runCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	names, err := listArtifacts(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

// listArtifacts returns run exports and tick logs under dataDir, relative to
// it and sorted.
func listArtifacts(dataDir string) ([]string, error) {
	var out []string
	for _, sub := range []string{"runs", "ticks"} {
		ents, err := os.ReadDir(filepath.Join(dataDir, sub))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range ents {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".zst") {
				continue
			}
			out = append(out, filepath.Join(sub, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	seed := fs.Int64("seed", 42, "run seed (used when -path is empty)")
	path := fs.String("path", "", "run export path (optional)")
	full := fs.Bool("full", false, "print the final summary and market too")
	_ = fs.Parse(args)

	p := strings.TrimSpace(*path)
	if p == "" {
		p = runfile.Path(*dataDir, *seed)
	}
	if !*full {
		h, err := runfile.ReadHeader(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read header:", err)
			os.Exit(1)
		}
		printJSON(h)
		return
	}
	h, res, err := runfile.Read(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read export:", err)
		os.Exit(1)
	}
	printJSON(struct {
		Header    runfile.Header         `json:"header"`
		Final     world.Summary          `json:"final"`
		Snapshots []world.MarketSnapshot `json:"market_snapshots"`
		Events    int                    `json:"events"`
	}{h, res.Final, res.MarketSnapshots, len(res.Events)})
}

func eventsCmd(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	seed := fs.Int64("seed", 42, "run seed (used when -path is empty)")
	path := fs.String("path", "", "tick log path (optional)")
	sinceTick := fs.Int("since_tick", 0, "first tick (inclusive)")
	toTick := fs.Int("to_tick", 0, "last tick (inclusive, optional)")
	agent := fs.String("agent", "", "agent id, name or nick (optional)")
	kind := fs.String("type", "", "event type filter (optional)")
	_ = fs.Parse(args)

	p := strings.TrimSpace(*path)
	if p == "" {
		p = persistlog.TickLogPath(*dataDir, *seed)
	}
	f := eventFilter{SinceTick: *sinceTick, ToTick: *toTick, Kind: world.EventKind(strings.TrimSpace(*kind))}
	if a := strings.TrimSpace(*agent); a != "" {
		id, ok := ids.ParseAgentID(a)
		if !ok {
			fmt.Fprintln(os.Stderr, "bad -agent:", a)
			os.Exit(2)
		}
		f.AgentID = id
	}

	entries, err := persistlog.ReadTickLog(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read tick log:", err)
		os.Exit(1)
	}
	for _, e := range f.apply(entries) {
		printJSON(e)
	}
}

type eventFilter struct {
	SinceTick int
	ToTick    int // 0 = no upper bound
	AgentID   int // 0 = any
	Kind      world.EventKind
}

func (f eventFilter) apply(entries []persistlog.TickLogEntry) []world.Event {
	var out []world.Event
	for _, en := range entries {
		if en.Tick < f.SinceTick || (f.ToTick > 0 && en.Tick > f.ToTick) {
			continue
		}
		for _, e := range en.Events {
			if f.Kind != "" && e.Kind != f.Kind {
				continue
			}
			if f.AgentID != 0 && !involves(e, f.AgentID) {
				continue
			}
			out = append(out, e)
		}
	}
	return out
}

func involves(e world.Event, id int) bool {
	if e.AgentID == id {
		return true
	}
	for _, a := range e.AgentIDs {
		if a == id {
			return true
		}
	}
	return false
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
