package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gaborage/fieldsadmin/app"
	"github.com/gaborage/fieldsadmin/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if err := a.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fieldsadmin stopped with error: %v\n", err)
		os.Exit(1)
	}
}
