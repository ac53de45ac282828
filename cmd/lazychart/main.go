// Package main is the lazychart entry point.
package main

import (
	"os"

	"github.com/rebeliceyang/lazychart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
