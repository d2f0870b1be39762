package main

import (
	"github.com/faiface/pixel/pixelgl"

	"github.com/beanboi7/chyp8/cmd"
)

// pixelgl needs the main thread for the window, so the whole command
// runs inside pixelgl.Run.
func main() {
	pixelgl.Run(runChyp8)
}

func runChyp8() {
	cmd.Execute()
}
