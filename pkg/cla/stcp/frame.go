// SPDX-License-Identifier: GPL-3.0-or-later

package stcp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dtn7/cboring"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

const (
	// ackOk acknowledges a successfully decoded frame.
	ackOk = "OK"

	// ackError reports a decoding failure back to the sender.
	ackError = "ERROR"

	// connTimeout bounds connection establishment and reachability probes.
	// Established connections carry no read deadline; a stalled peer can
	// block its handler until the connection dies.
	connTimeout = 3 * time.Second
)

// errDecode marks a frame whose payload was read completely but could not be
// decoded. The stream stays aligned on the next frame; only the Bundle is
// lost.
var errDecode = errors.New("frame payload is no valid bundle")

// writeFrame sends one Bundle as a length-prefixed CBOR frame.
func writeFrame(conn net.Conn, b bpv7.Bundle) error {
	var buff bytes.Buffer
	if err := cboring.Marshal(&b, &buff); err != nil {
		return fmt.Errorf("encoding bundle failed: %w", err)
	}

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(buff.Len()))

	if _, err := conn.Write(length[:]); err != nil {
		return err
	}

	_, err := conn.Write(buff.Bytes())
	return err
}

// readFrame reads one length-prefixed frame and decodes its Bundle. An EOF
// before the length prefix is passed through as io.EOF and marks a clean
// connection shutdown; an EOF within a frame becomes an error. A decode
// failure after a complete read leaves the stream aligned on the next frame.
func readFrame(conn net.Conn) (b bpv7.Bundle, err error) {
	var length [4]byte
	if _, err = io.ReadFull(conn, length[:]); err != nil {
		if err != io.EOF {
			err = fmt.Errorf("reading frame length failed: %w", err)
		}
		return
	}

	payload := make([]byte, binary.BigEndian.Uint32(length[:]))
	if _, err = io.ReadFull(conn, payload); err != nil {
		err = fmt.Errorf("reading frame payload failed: %w", err)
		return
	}

	if cborErr := cboring.Unmarshal(&b, bytes.NewReader(payload)); cborErr != nil {
		err = fmt.Errorf("%w: %v", errDecode, cborErr)
	}
	return
}

// sendAck writes a status string back to the frame's sender.
func sendAck(conn net.Conn, ack string) error {
	_, err := conn.Write([]byte(ack))
	return err
}

// readAck reads the peer's status string for the last frame.
func readAck(conn net.Conn) (string, error) {
	buff := make([]byte, 16)
	n, err := conn.Read(buff)
	if err != nil {
		return "", err
	}

	return string(buff[:n]), nil
}
