// Command configurator loads configuration files and directories into one
// dotted-key store and prints the result.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
