package main

import "github.com/johnwards/ciassoc/internal/cli"

var version = ""

func main() {
	cli.Execute(version)
}
