// Command fragent administers a fragent agent store: memory statistics,
// lifecycle cleanup, provider settings and one-off interactions.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
