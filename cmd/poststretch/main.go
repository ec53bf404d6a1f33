package main

import "github.com/santiagomed/poststretch/internal/cli"

func main() {
	cli.Execute()
}
