package main

import "policy-agent/cmd"

func main() {
	cmd.Execute()
}
