package main

import "github.com/crashandsideburns/lawa/cmd"

func main() {
	cmd.Execute()
}
