package main

import (
	"os"

	"github.com/gregLibert/seqrets-card/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
