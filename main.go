package main

import (
	"os"

	"blockmerge/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
