// Command votecast runs the awards revenue back office.
package main

import "github.com/votecast/backoffice/internal/cli"

func main() {
	cli.Execute()
}
