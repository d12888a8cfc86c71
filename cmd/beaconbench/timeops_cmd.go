package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/signalgraph/beacon/beacon"
	"github.com/signalgraph/beacon/beacon/timeops"
)

// timeopsCommand measures how many of a burst of writes a Debounced and a
// Throttled cell actually forward, and how long settling takes, using a
// manually-advanced fake clock so the numbers are deterministic rather than
// at the mercy of a real timer — the same determinism concern that drove
// timeops' own test suite to build a fakeClock instead of sleeping.
func timeopsCommand() *cli.Command {
	return &cli.Command{
		Name:  "timeops",
		Usage: "measure how many writes debounce/throttle forward out of a burst",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: writesKey, Usage: "writes in the burst", Value: 200},
			rendererFlag("go-pretty"),
		},
		Action: runTimeops,
	}
}

func runTimeops(ctx context.Context, cmd *cli.Command) error {
	writes := int(cmd.Int(writesKey))
	window := 10 * time.Millisecond

	debouncedForwarded, debouncedElapsed := burstDebounced(writes, window)
	throttledForwarded, throttledElapsed := burstThrottled(writes, window)

	tbl := newResultTable(
		fmt.Sprintf("timeops burst=%s window=%s", humanize.Comma(int64(writes)), window),
		"operator", "forwarded", "settle time",
	)
	tbl.addRow("debounce", humanize.Comma(int64(debouncedForwarded)), debouncedElapsed.String())
	tbl.addRow("throttle", humanize.Comma(int64(throttledForwarded)), throttledElapsed.String())
	tbl.render(cmd.String(rendererKey))
	return nil
}

// burstDebounced fires writes rapid writes (each inside the quiet window, so
// none individually settles) then lets one final window elapse, and reports
// how many times the debounced output actually changed — which should be
// exactly once, regardless of how large writes is.
func burstDebounced(writes int, window time.Duration) (forwarded int, elapsed time.Duration) {
	rt := beacon.NewRuntime()
	clk := newBenchClock()
	source := beacon.NewWritable(rt, 0)
	d, err := timeops.NewDebounced(rt, source, window, clk)
	if err != nil {
		panic(err)
	}
	defer d.Dispose()

	d.Subscribe(func(int) { forwarded++ }, false, true)

	start := time.Now()
	for i := 1; i <= writes; i++ {
		source.Set(i)
		clk.Advance(window / 2)
	}
	clk.Advance(window)
	elapsed = time.Since(start)
	return forwarded, elapsed
}

// burstThrottled fires writes rapid writes and reports how many windows the
// throttle actually opened — roughly totalSpan/window (about writes/4 here,
// since a write lands every window/4), far fewer than writes itself.
func burstThrottled(writes int, window time.Duration) (forwarded int, elapsed time.Duration) {
	rt := beacon.NewRuntime()
	clk := newBenchClock()
	source := beacon.NewWritable(rt, 0)
	th, err := timeops.NewThrottled(rt, source, window, false, clk)
	if err != nil {
		panic(err)
	}
	defer th.Dispose()

	th.Subscribe(func(int) { forwarded++ }, false, true)

	start := time.Now()
	for i := 1; i <= writes; i++ {
		source.Set(i)
		clk.Advance(window / 4)
	}
	clk.Advance(window)
	elapsed = time.Since(start)
	return forwarded, elapsed
}
