package main

import "github.com/santaclaude2025/session-improver/cmd"

func main() {
	cmd.Execute()
}
