// Command kvsum loads key/value fixtures into an MVCC store and computes
// deterministic CRC64-XOR checksums over key ranges at a snapshot.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stevenberge/tikv/internal/cli/command"
	"github.com/stevenberge/tikv/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	app := command.App()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
