package config

import (
	"flag"
	"os"

	"github.com/gabenodland/trace-sub002/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server (default from Config)
//	-n string   device name reported on saves
//	-b string   path of the local draft database
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-n", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DeviceName, "n", cfg.DeviceName, "device name reported on saves")
	fs.StringVar(&cfg.DraftDBPath, "b", cfg.DraftDBPath, "path of the local draft database")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
