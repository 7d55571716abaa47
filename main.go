// The main package for the zefbible executable.
package main

import (
	"github.com/openscripture/zefbible/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
