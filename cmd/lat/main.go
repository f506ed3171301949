package main

import "github.com/cbout22/lat/internal/cli"

func main() {
	cli.Execute()
}
