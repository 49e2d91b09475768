package main

import "github.com/obra/compose-all/cmd"

func main() {
	cmd.Execute()
}
