package main

import "Directory/internal/cli"

func main() {
	cli.Execute()
}
