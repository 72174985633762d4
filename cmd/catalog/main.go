// Command catalog builds, compares and exports offline snapshots of the
// year -> make -> model selection data.
package main

import "os"

func main() {
	os.Exit(execute())
}
