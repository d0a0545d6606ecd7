package main

import "github.com/griddynamics/goucsm/cmd/ucsmquery/cmd"

func main() {
	cmd.Execute()
}
