package main

import "groupsync.dev/cli/cmd"

func main() {
	cmd.Execute()
}
