// Command rdfbatch loads, updates and exports RDF statements through a
// batching graph.
package main

import (
	"fmt"
	"os"

	"github.com/geoknoesis/rdf-batch/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
