package main

import (
	"os"

	"github.com/Superguppi/openclaw-bring-integration/cmd/bring/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, &cmd.Config{}))
}
