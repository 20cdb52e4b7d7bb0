package main

import "atdw-sync/cmd"

func main() {
	cmd.Execute()
}
