// Command nildbd runs a single node of the document/capability data
// service.
package main

import (
	"fmt"
	"os"

	"github.com/nilnode/nildb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
