package main

import "storekeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
