package main

import "github.com/schemalens/schemalens/cmd"

func main() {
	cmd.Execute()
}
