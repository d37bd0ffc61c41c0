// threadsplit - Thread Log Partitioner
//
// threadsplit splits a multi-threaded application log into per-thread and
// per-message-type files, plus a last known line of each message type for
// every thread that is still running.
package main

import (
	"os"

	"github.com/ccollicutt/threadsplit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
