// Command parsebench benchmarks parser backends over the fixture corpus and
// checks whether two backends extract equivalent features.
//
// Usage:
//
//	parsebench run --backend goquery --backend htmlquery --document-type html
//	parsebench compare --a goquery --b htmlquery --tolerance text_length=512
//	parsebench tolerances
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
