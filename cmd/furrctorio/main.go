// Package main is the entry point for the furrctorio CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cliftontoaster-reid/furrctorio/internal/cmd"
	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *ferrors.ExitError
		if errors.As(err, &exitErr) {
			// Only print if the command layer hasn't already rendered it
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
