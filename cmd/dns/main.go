// Package main provides the dns command: register names, manage their
// services and browse them.
package main

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
)

func main() {
	err := rootCmd.Execute()
	if current != nil {
		err = multierr.Append(err, current.Close())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
