// Command sonido-meter analyses speech delivery from audio files or over HTTP.
package main

import (
	"os"

	"github.com/RyanBlaney/sonido-meter/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logging.Error(err, "Command failed")
		os.Exit(1)
	}
}
