package main

import "github.com/example/seatsniper/cmd"

func main() {
	cmd.Execute()
}
