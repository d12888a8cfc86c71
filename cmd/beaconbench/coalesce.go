package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/urfave/cli/v3"

	"github.com/signalgraph/beacon/beacon"
	"github.com/signalgraph/beacon/beacon/collections"
)

// coalesceCommand measures the latency of writing writesKey cells per round
// with and without Batch, and counts effect runs. Each cell has its own
// effect, which appends that cell's value to a shared ListCell. Every cell is
// written once per round, so under ModeSync each effect runs once per changed
// cell in both modes: Batch moves those runs to the end of the round but does
// not reduce their number.
func coalesceCommand() *cli.Command {
	return &cli.Command{
		Name:  "coalesce",
		Usage: "measure listener call counts and latency with and without Batch",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: writesKey, Usage: "writes per measured round", Value: 50},
			&cli.IntFlag{Name: itersKey, Usage: "rounds to measure", Value: 1000},
			rendererFlag("go-pretty"),
		},
		Action: runCoalesce,
	}
}

func runCoalesce(ctx context.Context, cmd *cli.Command) error {
	writes := int(cmd.Int(writesKey))
	iters := int(cmd.Int(itersKey))

	unbatchedTm, unbatchedCalls := measureCoalesce(writes, iters, false)
	batchedTm, batchedCalls := measureCoalesce(writes, iters, true)

	tbl := newResultTable(
		fmt.Sprintf("coalesce writes=%d iters=%d", writes, iters),
		"mode", "p50", "p99", "listener calls",
	)
	calc := unbatchedTm.Calc()
	tbl.addRow("unbatched", calc.Time.P50.String(), calc.Time.P99.String(), fmt.Sprintf("%d", unbatchedCalls))
	calc = batchedTm.Calc()
	tbl.addRow("batched", calc.Time.P50.String(), calc.Time.P99.String(), fmt.Sprintf("%d", batchedCalls))
	tbl.render(cmd.String(rendererKey))
	return nil
}

func measureCoalesce(writes, iters int, batched bool) (*tachymeter.Tachymeter, int) {
	rt := beacon.NewRuntime()
	rt.Scheduler().SetMode(beacon.ModeSync)

	cells := make([]*beacon.WritableCell[int], writes)
	for i := range cells {
		cells[i] = beacon.NewWritable(rt, 0)
	}

	log := collections.NewList[int](rt, nil)
	calls := 0
	for _, c := range cells {
		cell := c
		_, stop := beacon.NewEffect(rt, func() {
			v, _ := cell.Value()
			log.Append(v)
			calls++
		})
		defer stop()
	}
	calls = 0 // discount each effect's mandatory first run

	tm := tachymeter.New(&tachymeter.Config{Size: iters})
	for round := 0; round < iters; round++ {
		start := time.Now()
		if batched {
			rt.Batch(func() {
				for i, c := range cells {
					c.Set(round*writes + i)
				}
			})
		} else {
			for i, c := range cells {
				c.Set(round*writes + i)
			}
		}
		tm.AddTime(time.Since(start))
	}
	return tm, calls
}
