package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/urfave/cli/v3"

	"github.com/signalgraph/beacon/beacon"
)

// propagateCommand benchmarks how long a single root write takes to reach
// every leaf of a width x depth grid of DerivedCells, under ModeSync (drains
// inline, on the writing goroutine) versus ModeAsync with an explicit Flush
// per write. Grounded on cmd/benchmark's and cmd/benchmark_reactively's ww/hh
// nested-graph construction, adapted from comparing alien/rocket/dumbdumb/
// reactively against each other to comparing this module's own two scheduler
// modes against each other.
func propagateCommand() *cli.Command {
	return &cli.Command{
		Name:  "propagate",
		Usage: "measure root-to-leaf propagation latency across a derived-cell grid",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: widthKey, Usage: "derived cells per layer", Value: 10},
			&cli.IntFlag{Name: depthKey, Usage: "number of layers", Value: 5},
			&cli.IntFlag{Name: itersKey, Usage: "root writes to measure", Value: 1000},
			rendererFlag("go-pretty"),
		},
		Action: runPropagate,
	}
}

func runPropagate(ctx context.Context, cmd *cli.Command) error {
	width := int(cmd.Int(widthKey))
	depth := int(cmd.Int(depthKey))
	iters := int(cmd.Int(itersKey))

	syncStats := measurePropagation(width, depth, iters, beacon.ModeSync)
	asyncStats := measurePropagation(width, depth, iters, beacon.ModeAsync)

	tbl := newResultTable(
		fmt.Sprintf("propagate width=%d depth=%d iters=%d", width, depth, iters),
		"mode", "p50", "p99", "max",
	)
	addTachyRow(tbl, "sync", syncStats)
	addTachyRow(tbl, "async+flush", asyncStats)
	tbl.render(cmd.String(rendererKey))
	return nil
}

// buildGrid wires width leaf WritableCells under depth layers of width
// DerivedCells each, every layer-N cell summing the whole previous layer, so
// a single leaf write must ripple through depth*width recomputations before
// settling — the same fan-out cmd/benchmark's ww/hh slices build, generalized
// to beacon's DerivedCell instead of rocket's Computed1/reactively.go's cell().
func buildGrid(rt *beacon.Runtime, width, depth int) (roots []*beacon.WritableCell[int], leaf func() int) {
	roots = make([]*beacon.WritableCell[int], width)
	for i := range roots {
		roots[i] = beacon.NewWritable(rt, 0)
	}

	layer := make([]func() int, width)
	for i := range layer {
		r := roots[i]
		layer[i] = func() int { v, _ := r.Peek(); return v }
	}

	for d := 0; d < depth; d++ {
		prev := layer
		layer = make([]func() int, width)
		for i := 0; i < width; i++ {
			srcs := prev
			dc := beacon.NewDerived(rt, func() int {
				sum := 0
				for _, s := range srcs {
					sum += s()
				}
				return sum
			})
			layer[i] = func() int { return dc.Value() }
		}
	}

	final := beacon.NewDerived(rt, func() int {
		sum := 0
		for _, s := range layer {
			sum += s()
		}
		return sum
	})
	return roots, func() int { return final.Value() }
}

func measurePropagation(width, depth, iters int, mode beacon.SchedulerMode) *tachymeter.Tachymeter {
	rt := beacon.NewRuntime()
	rt.Scheduler().SetMode(mode)
	roots, leaf := buildGrid(rt, width, depth)

	_, stop := beacon.NewEffect(rt, func() { leaf() })
	defer stop()

	tm := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		start := time.Now()
		roots[i%width].Set(i)
		if mode == beacon.ModeAsync {
			rt.Flush()
		}
		tm.AddTime(time.Since(start))
	}
	return tm
}

func addTachyRow(tbl *resultTable, label string, tm *tachymeter.Tachymeter) {
	calc := tm.Calc()
	tbl.addRow(label, calc.Time.P50.String(), calc.Time.P99.String(), calc.Time.Max.String())
}
