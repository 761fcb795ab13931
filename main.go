package main

import "mcptap/internal/cmd"

func main() {
	cmd.Execute()
}
