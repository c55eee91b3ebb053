package main

import "github.com/pfrederiksen/telegrambis/internal/cli"

func main() {
	cli.Execute()
}
