package main

import "storekeeper/cmd/server/cmd"

func main() {
	cmd.Execute()
}
