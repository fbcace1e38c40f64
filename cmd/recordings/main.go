package main

import "recordings/cmd/recordings/cmd"

func main() {
	cmd.Execute()
}
