package main

import (
	"github.com/dodoapps/dodopass/cmd"
)

func main() {
	cmd.Execute()
}
