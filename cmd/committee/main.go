package main

import (
	"os"

	"github.com/vsinha/prepcommittee/pkg/interfaces/cli/commands"
)

func main() {
	os.Exit(commands.Execute())
}
