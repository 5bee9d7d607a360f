package main

import "github.com/docdrift/docdrift/internal/cli"

func main() {
	cli.Execute()
}
