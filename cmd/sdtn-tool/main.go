// SPDX-License-Identifier: GPL-3.0-or-later

// sdtn-tool is a collection of helper functions regarding bundles: creating
// and inspecting bundle files and pushing dropped bundle files to a node.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// printUsage of sdtn-tool and exit with an error code afterwards.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of %s create|show|watch:\n\n", os.Args[0])

	_, _ = fmt.Fprintf(os.Stderr, "%s create sender receiver -|filename bundle-name\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Creates a new Bundle, addressed from sender to receiver, with the stdin (-) or\n")
	_, _ = fmt.Fprintf(os.Stderr, "  the given file (filename) as payload. This Bundle will be saved as bundle-name.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s show filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Prints a human-readable version of the given Bundle.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s watch directory address\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Watches the directory and sends every dropped Bundle file to the node\n")
	_, _ = fmt.Fprintf(os.Stderr, "  listening on address.\n\n")

	os.Exit(1)
}

// printFatal logs the error with the message and exits afterwards.
func printFatal(err error, message string) {
	log.WithError(err).Fatal(message)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
	}

	switch os.Args[1] {
	case "create":
		createBundle(os.Args[2:])

	case "show":
		showBundle(os.Args[2:])

	case "watch":
		watchDirectory(os.Args[2:])

	default:
		printUsage()
	}
}
