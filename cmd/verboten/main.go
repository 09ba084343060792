package main

import (
	"fmt"
	"os"

	"github.com/turtacn/verboten/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	cli.Execute()
}

// Personal.AI order the ending
