package main

import "jira-mcp-server/cmd"

func main() {
	cmd.Execute()
}
