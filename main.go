package main

import "civic-issues-backend/cmd"

func main() {
	cmd.Run()
}
