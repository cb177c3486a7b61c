package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/exportshell/cli"
	"github.com/grovetools/exportshell/cmd"
	"github.com/grovetools/exportshell/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		if !errors.Is(err, errors.ErrCodeNotRunning) {
			cli.NewErrorHandler(verbose).Handle(err)
		}
		stop()
		os.Exit(1)
	}
}
