package main

import "github.com/mvp-joe/cakevars/internal/cli"

func main() {
	cli.Execute()
}
