// Package main provides the megakanban CLI.
package main

import "github.com/jeffreyruoss/ru-mega-kanban/internal/cli"

func main() {
	cli.Execute()
}
