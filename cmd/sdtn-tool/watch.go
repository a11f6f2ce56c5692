// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"
	"os/signal"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla/stcp"
)

// watch pushes Bundle files dropped into a directory to a listening node.
type watch struct {
	directory  string
	peer       *stcp.Peer
	watcher    *fsnotify.Watcher
	knownFiles sync.Map

	closeChan chan os.Signal
}

// watchDirectory for the "watch" CLI option.
func watchDirectory(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		directory = args[0]
		address   = args[1]

		err error
	)

	w := &watch{
		directory: directory,
		peer:      stcp.NewPeer(bpv7.DtnNone(), address),
		closeChan: make(chan os.Signal),
	}

	signal.Notify(w.closeChan, os.Interrupt)

	if w.watcher, err = fsnotify.NewWatcher(); err != nil {
		printFatal(err, "Starting file watcher errored")
	}
	if err = w.watcher.Add(directory); err != nil {
		printFatal(err, "Adding directory to file watcher errored")
	}

	w.handler()
}

func (w *watch) handler() {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-w.closeChan:
			log.Info("Received interrupt signal")
			return

		case e, ok := <-w.watcher.Events:
			if !ok {
				log.Error("fsnotify's Event channel was closed")
				return
			}

			if e.Op&fsnotify.Create == 0 {
				log.WithFields(log.Fields{
					"file":      e.Name,
					"operation": e.Op.String(),
				}).Debug("Ignoring fsnotify event")
				continue
			}

			if _, known := w.knownFiles.LoadOrStore(e.Name, struct{}{}); known {
				log.WithField("file", e.Name).Debug("Skipping file; already known")
				continue
			}

			w.pushFile(e.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				log.Error("fsnotify's Error channel was closed")
				return
			}

			log.WithError(err).Error("File watcher errored")
		}
	}
}

// pushFile reads a Bundle file and sends it to the node.
func (w *watch) pushFile(filename string) {
	f, err := os.Open(filename)
	if err != nil {
		log.WithField("file", filename).WithError(err).Error("Opening file errored")
		return
	}
	defer func() { _ = f.Close() }()

	var b bpv7.Bundle
	if err := b.UnmarshalCbor(f); err != nil {
		log.WithField("file", filename).WithError(err).Warn("File is no Bundle, skipping")
		return
	}

	if err := w.peer.Send(b); err != nil {
		log.WithFields(log.Fields{
			"file":   filename,
			"bundle": b,
			"error":  err,
		}).Error("Sending Bundle errored")

		// Allow a retry on the next event for this file.
		w.knownFiles.Delete(filename)
		return
	}

	log.WithFields(log.Fields{
		"file":   filename,
		"bundle": b,
	}).Info("Sent Bundle")
}
