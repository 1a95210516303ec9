package main

import "github.com/lunix-engine/setup/cmd"

func main() {
	cmd.Execute()
}
