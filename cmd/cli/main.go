package main

import (
	"context"
	"log"
	"os"

	"github.com/gabenodland/trace-sub002/internal/buildinfo"
	"github.com/gabenodland/trace-sub002/internal/client/cli"
	"github.com/gabenodland/trace-sub002/internal/client/config"
	"github.com/gabenodland/trace-sub002/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
