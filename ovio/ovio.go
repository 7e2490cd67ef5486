package main

import (
	"os"

	"github.com/seqwerk/ovio/cmd"
)

func main() {
	os.Exit(cmd.RunCmdline(os.Args))
}
