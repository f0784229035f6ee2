// Command cachesim replays a reference trace through a three-level cache
// hierarchy and reports the miss statistics of every level.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
