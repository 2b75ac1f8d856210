// uftp is the command line tool for UFTP participants.
package main

import "github.com/uftp-network/uftp-engine/internal/cli"

func main() {
	cli.Execute()
}
