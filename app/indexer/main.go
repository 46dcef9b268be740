package main

import "movieReco/internal/cli"

func main() {
	cli.Execute()
}
