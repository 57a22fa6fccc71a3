package main

import "github.com/nfrund/trendline/cmd/trendline/cmd"

func main() {
	cmd.Execute()
}
