package main

import (
	"listen80/cmd"
)

func main() {
	cmd.Execute()
}
