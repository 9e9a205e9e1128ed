package main

import "github.com/metal-toolbox/stockroom/cmd"

func main() {
	cmd.Execute()
}
