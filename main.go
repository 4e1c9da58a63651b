package main

import "github.com/racekit/race-telemetry-go/cmd"

func main() {
	cmd.Execute()
}
