// Command beaconbench compares scheduler modes, write-batching, and the
// timeops operators against each other, the way cmd/benchmark and
// cmd/benchmark_reactively compared alien/rocket/dumbdumb/reactively against
// each other — same two table renderers, same tachymeter histograms, applied
// to this module's own graph instead of the teacher's.
package main

import (
	"context"
	"log"
	"os"
)

func main() {
	cmd := rootCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
