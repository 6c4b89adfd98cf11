package main

import "github.com/Ntrakiyski/agent-zero-telegram/cmd"

func main() {
	cmd.Execute()
}
