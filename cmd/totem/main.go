// Package main is the entry point for the kiosk server.
package main

import "Totem/cmd/totem/cmd"

func main() {
	cmd.Execute()
}
