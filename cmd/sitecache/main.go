package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dylanmikesell/sitecache/internal/cli"
	"github.com/dylanmikesell/sitecache/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	shutdown, err := telemetry.Setup(context.Background(), "sitecache")
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}()

	return cli.Run()
}
