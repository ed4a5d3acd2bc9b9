package main

import "leech/cmd"

func main() {
	cmd.Execute()
}
