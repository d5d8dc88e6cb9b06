package main

import cmd "github.com/berth-automation/berth/cmd"

func main() {
	cmd.Execute()
}
