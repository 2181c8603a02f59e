package main

import "github.com/zonedns/zoned/internal/cmd"

func main() {
	cmd.Main()
}
