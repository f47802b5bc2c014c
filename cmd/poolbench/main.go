// Command poolbench drives an objpool.Pool through randomized
// allocate/free cycles and prints its final Stats as JSON — a small,
// runnable exercise of the public API outside of the test suite.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"unsafe"

	"github.com/holmberd/objpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "poolbench:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		objectSize     = flag.Int("object-size", 32, "bytes per client object")
		objectsPerPage = flag.Int("objects-per-page", 64, "blocks per page")
		maxPages       = flag.Int("max-pages", 0, "0 = unbounded")
		debug          = flag.Bool("debug", true, "enable debug checks and painting")
		padBytes       = flag.Int("pad-bytes", 4, "guard bytes on each side of a payload")
		header         = flag.String("header", "basic", "none|basic|extended|external")
		alignment      = flag.Int("alignment", 0, "0 = natural")
		passthrough    = flag.Bool("passthrough", false, "bypass the pool entirely")
		cycles         = flag.Int("cycles", 100000, "number of allocate/free cycles to run")
		seed           = flag.Int64("seed", 1, "PRNG seed")
	)
	flag.Parse()

	kind, err := parseHeaderKind(*header)
	if err != nil {
		return err
	}

	cfg := objpool.Config{
		ObjectSize:     *objectSize,
		ObjectsPerPage: *objectsPerPage,
		MaxPages:       *maxPages,
		DebugOn:        *debug,
		PadBytes:       *padBytes,
		HeaderKind:     kind,
		Alignment:      *alignment,
		UsePassthrough: *passthrough,
		Logger:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	pool, err := objpool.New(cfg)
	if err != nil {
		return fmt.Errorf("constructing pool: %w", err)
	}
	defer pool.Destroy()

	rng := rand.New(rand.NewSource(*seed))
	var live []unsafe.Pointer

	for i := 0; i < *cycles; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			ptr, err := pool.Allocate("poolbench")
			if err != nil {
				continue // E_NO_PAGES/E_NO_MEMORY under a tight cap; keep cycling.
			}
			live = append(live, ptr)
			continue
		}
		idx := rng.Intn(len(live))
		ptr := live[idx]
		live[idx] = live[len(live)-1]
		live = live[:len(live)-1]
		if err := pool.Free(ptr); err != nil {
			return fmt.Errorf("free: %w", err)
		}
	}

	for _, ptr := range live {
		_ = pool.Free(ptr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pool.Stats())
}

func parseHeaderKind(s string) (objpool.HeaderKind, error) {
	switch s {
	case "none":
		return objpool.HeaderNone, nil
	case "basic":
		return objpool.HeaderBasic, nil
	case "extended":
		return objpool.HeaderExtended, nil
	case "external":
		return objpool.HeaderExternal, nil
	default:
		return 0, fmt.Errorf("unknown header kind %q", s)
	}
}
