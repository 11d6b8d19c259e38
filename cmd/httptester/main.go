package main

import (
	"os"

	"github.com/gaborage/fieldsadmin/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
