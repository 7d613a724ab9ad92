package main

import "github.com/dt-pm-tools/issuedata/cmd"

func main() {
	cmd.Execute()
}
