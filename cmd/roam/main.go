package main

import (
	"roam/internal/cli/cmd"
)

func main() {
	cmd.Execute()
}
