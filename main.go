package main

import "github.com/mossline/beacon/cmd"

func main() {
	cmd.Execute()
}
