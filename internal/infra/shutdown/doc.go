// Package shutdown turns termination signals into context cancellation.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//	app.RunContext(ctx, os.Args)
package shutdown
