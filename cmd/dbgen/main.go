// Command dbgen generates classes and wiki pages from a live database schema.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/dbgen/internal/errs"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "dbgen:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process status: 2 when a requested table
// does not exist, 1 for every other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errs.IsEmptyResultSet(err):
		return 2
	default:
		return 1
	}
}
