package main

import (
	"gojam/cmd"
)

func main() {
	cmd.Execute()
}
