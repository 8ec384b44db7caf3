package exec

import (
	"io/ioutil"
	"log"
	"os"
)

var PrintDebugInfo = false

var logger *log.Logger

func init() {
	w := ioutil.Discard

	if PrintDebugInfo {
		w = os.Stderr
	}

	logger = log.New(w, "", log.Lshortfile)
}

// SetDebugMode toggles execution-time trace logging to stderr, for callers
// that only learn the desired verbosity after package init (e.g. a CLI
// flag parsed in main).
func SetDebugMode(on bool) {
	PrintDebugInfo = on
	w := ioutil.Discard
	if on {
		w = os.Stderr
	}
	logger = log.New(w, "", log.Lshortfile)
}
