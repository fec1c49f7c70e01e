package main

import "sighting-engine/cmd"

func main() {
	cmd.Execute()
}
