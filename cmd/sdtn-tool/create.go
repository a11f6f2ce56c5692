// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io/ioutil"
	"os"

	"github.com/dtn7/cboring"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// createBundle for the "create" CLI option.
func createBundle(args []string) {
	if len(args) != 4 {
		printUsage()
	}

	var (
		sender    = args[0]
		receiver  = args[1]
		dataInput = args[2]
		outName   = args[3]

		err  error
		data []byte
		f    *os.File
	)

	if dataInput == "-" {
		data, err = ioutil.ReadAll(os.Stdin)
	} else {
		data, err = ioutil.ReadFile(dataInput)
	}
	if err != nil {
		printFatal(err, "Reading input errored")
	}

	b := bpv7.NewBundle(
		bpv7.NewEndpointID(sender), bpv7.NewEndpointID(receiver), data)

	if f, err = os.Create(outName); err != nil {
		printFatal(err, "Creating file errored")
	}
	if err = cboring.Marshal(&b, f); err != nil {
		printFatal(err, "Writing Bundle errored")
	}
	if err = f.Close(); err != nil {
		printFatal(err, "Closing file errored")
	}
}
