package main

import "sharesync/cmd"

func main() {
	cmd.Execute()
}
