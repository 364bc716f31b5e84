package main

import (
	"leanup/internal/cli"
)

func main() {
	cli.Execute()
}
