// Command scavhunt sirve la API de hunts y usuarios.
//
// Uso:
//
//	scavhunt serve [--port 3005] [--env production]
//	scavhunt import --file data/hunts.json [--delete]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
