// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage implements a content-addressed file Store for Bundles.
//
// Each Bundle is kept as a single CBOR file, named by a digest of selected
// primary block fields. There is no index next to the files; the directory
// listing itself is the source of truth for which Bundles exist.
package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// bundleExtension is the file extension of each stored Bundle.
const bundleExtension = ".cbor"

// ErrBundleNotFound is returned for a Bundle ID or ID prefix without a match.
var ErrBundleNotFound = errors.New("bundle not found")

// Store is a flat directory of serialized Bundles, addressed by the digest
// returned from BundleID. Its file operations are synchronous; callers on a
// network hot path should not invoke them from their read loops.
type Store struct {
	dir string
}

// NewStore creates a new Store or opens an existing Store below dir. The
// directory will be created if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &Store{dir: dir}, nil
}

// BundleID calculates the digest a Bundle is addressed by: the SHA-256 over
// version, source, destination and creation timestamp of the primary block.
//
// The payload is NOT part of this identity. Two Bundles sharing those four
// fields collide and the later Insert overwrites the earlier one; callers
// must ensure distinct creation timestamps for distinct Bundles with the
// same source and destination.
func BundleID(b bpv7.Bundle) string {
	pb := b.PrimaryBlock
	idStr := fmt.Sprintf("%d:%s:%s:%d",
		pb.Version, pb.SourceNode, pb.Destination, pb.CreationTimestamp)

	return fmt.Sprintf("%x", sha256.Sum256([]byte(idStr)))
}

// filename returns the Bundle's path within this Store's directory.
func (s *Store) filename(b bpv7.Bundle) string {
	return filepath.Join(s.dir, BundleID(b)+bundleExtension)
}

// Insert serializes the Bundle into this Store. An already present Bundle
// with the same identity digest is overwritten silently, compare BundleID.
func (s *Store) Insert(b bpv7.Bundle) error {
	f, err := os.OpenFile(s.filename(b), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err := cboring.Marshal(&b, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("serializing bundle failed: %v", err)
	}

	log.WithFields(log.Fields{
		"bundle": BundleID(b),
		"store":  s.dir,
	}).Debug("Store inserted Bundle")

	return f.Close()
}

// List returns the IDs of all Bundles currently present. The order is the
// directory scan order and therefore unspecified.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, bundleExtension) {
			ids = append(ids, strings.TrimSuffix(name, bundleExtension))
		}
	}

	return ids, nil
}

// Load reads the Bundle stored under the exact ID.
func (s *Store) Load(id string) (b bpv7.Bundle, err error) {
	f, fErr := os.Open(filepath.Join(s.dir, id+bundleExtension))
	if fErr != nil {
		if os.IsNotExist(fErr) {
			err = fmt.Errorf("loading %s: %w", id, ErrBundleNotFound)
		} else {
			err = fErr
		}
		return
	}
	defer func() { _ = f.Close() }()

	if cErr := cboring.Unmarshal(&b, f); cErr != nil {
		err = fmt.Errorf("decoding bundle %s failed: %v", id, cErr)
	}
	return
}

// LoadByPartialID resolves an ID prefix against List and loads the first
// match in directory scan order. Ambiguous prefixes are not detected; the
// first match wins. Without any match, ErrBundleNotFound is returned.
func (s *Store) LoadByPartialID(partial string) (bpv7.Bundle, error) {
	ids, err := s.List()
	if err != nil {
		return bpv7.Bundle{}, err
	}

	for _, id := range ids {
		if strings.HasPrefix(id, partial) {
			return s.Load(id)
		}
	}

	return bpv7.Bundle{}, fmt.Errorf("resolving %s: %w", partial, ErrBundleNotFound)
}

// DispatchOne moves the Bundle's file out of this Store into targetDir,
// creating targetDir if necessary. This is used after a confirmed
// transmission. If the source file is already gone, e.g., after a concurrent
// dispatch or an expiration purge, ErrBundleNotFound is returned and the
// caller must tolerate this race.
func (s *Store) DispatchOne(b bpv7.Bundle, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0700); err != nil {
		return err
	}

	src := s.filename(b)
	dst := filepath.Join(targetDir, filepath.Base(src))

	if err := os.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("dispatching %s: source missing: %w", BundleID(b), ErrBundleNotFound)
		}
		return err
	}

	log.WithFields(log.Fields{
		"bundle": BundleID(b),
		"target": targetDir,
	}).Info("Store dispatched Bundle")

	return nil
}

// CleanupExpired removes the file of every expired Bundle. A Bundle listed
// but gone at load time, e.g., dispatched concurrently, is skipped; any
// other load failure propagates. Errors from the removals themselves are
// collected and returned together.
func (s *Store) CleanupExpired() error {
	ids, err := s.List()
	if err != nil {
		return err
	}

	var removeErr *multierror.Error
	for _, id := range ids {
		b, loadErr := s.Load(id)
		if errors.Is(loadErr, ErrBundleNotFound) {
			continue
		} else if loadErr != nil {
			return loadErr
		}

		if !b.IsExpired() {
			continue
		}

		if rmErr := os.Remove(filepath.Join(s.dir, id+bundleExtension)); rmErr != nil && !os.IsNotExist(rmErr) {
			removeErr = multierror.Append(removeErr, rmErr)
		} else {
			log.WithFields(log.Fields{
				"bundle": id,
				"store":  s.dir,
			}).Info("Store removed expired Bundle")
		}
	}

	return removeErr.ErrorOrNil()
}
