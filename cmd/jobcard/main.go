package main

import (
	"os"

	"github.com/phillip-england/jobcard/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
