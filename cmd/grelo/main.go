package main

import "github.com/artesanomultimedia/grelo-installer/cmd/grelo/cmd"

func main() {
	cmd.Execute()
}
