// Command analisadol serves the claims analysis API and produces offline
// reports.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/revaldyhazza/analisadolproperty/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
