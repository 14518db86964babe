package main

import "github.com/TheImagingSource/tiscamera/cmd"

func main() {
	cmd.Execute()
}
