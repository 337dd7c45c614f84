package main

import "github.com/santiagomed/stepseq/cli"

func main() {
	cli.Execute()
}
