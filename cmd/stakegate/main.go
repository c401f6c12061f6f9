package main

import (
	"stx-stake-gateway/internal/cli"
)

func main() {
	cli.Execute()
}
