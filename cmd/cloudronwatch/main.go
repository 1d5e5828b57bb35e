package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, errRunReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
