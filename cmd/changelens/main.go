package main

import (
	"os"

	"github.com/dshills/changelens/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
