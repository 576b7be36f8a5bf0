package main

import (
	"MuseGen/cmd"
)

func main() {
	cmd.Execute()
}
