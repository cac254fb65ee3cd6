package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cardflow/txn-uploader/cmd/configcmd"
	"cardflow/txn-uploader/cmd/mapping"
	"cardflow/txn-uploader/cmd/root"
	"cardflow/txn-uploader/cmd/run"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(mapping.Cmd)
	root.Cmd.AddCommand(configcmd.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
