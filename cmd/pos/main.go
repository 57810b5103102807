package main

import "github.com/matthieukhl/pocketpos/internal/cmd"

func main() {
	cmd.Execute()
}
