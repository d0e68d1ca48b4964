// Command stormgen generates row types from YAML schema declarations.
//
//	stormgen gen --schema rows.yaml --package rows --out rows/rows_gen.go
//	stormgen validate --schema rows.yaml --schema parents.yaml
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
