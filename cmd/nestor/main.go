// nestor archives Slack events to per-channel log files.
// Usage: nestor [flags] [destination]
package main

import (
	"os"

	"github.com/nestor-bot/nestor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
