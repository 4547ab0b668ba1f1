package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/hjiwane/apartment-society-backend/config"
	"github.com/hjiwane/apartment-society-backend/server"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file (yaml)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	app := &server.App{}
	if err := app.Initialize(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		app.Log.Fatal(err)
	}
}
