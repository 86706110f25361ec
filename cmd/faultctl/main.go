package main

import "github.com/Goden-Gun/fault-lib/internal/cli"

func main() {
	cli.Execute()
}
