//go:build linux

/*
 * Copyright 2025 The tunring Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tunring

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Region is an owned reference to ring memory: either caller-provided
// pages pinned in place, or a file-backed mapping shared with another
// process. Release is idempotent and runs the teardown exactly once, so
// every exit path of registration and teardown may call it.
type Region struct {
	mem     []byte
	pinned  bool
	mapped  bool
	file    *os.File
	release sync.Once
}

// PinRegion pins the caller-owned slice into physical memory for the
// lifetime of the region. The pages stay resident until Release.
func PinRegion(mem []byte) (*Region, error) {
	if len(mem) == 0 {
		return nil, errors.Wrap(ErrInvalidMemory, "empty region")
	}
	if err := unix.Mlock(mem); err != nil {
		return nil, errors.Wrap(ErrInvalidMemory, err.Error())
	}
	return &Region{mem: mem, pinned: true}, nil
}

// CreateFileRegion creates a file of the given size and maps it shared,
// for ring memory that another process will open by path.
func CreateFileRegion(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "create region file")
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, "resize region file")
	}
	r, err := mapFileRegion(f, size)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return r, nil
}

// OpenFileRegion maps an existing region file shared.
func OpenFileRegion(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "open region file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat region file")
	}
	r, err := mapFileRegion(f, int(info.Size()))
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func mapFileRegion(f *os.File, size int) (*Region, error) {
	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "mmap region")
	}
	return &Region{mem: mem, mapped: true, file: f}, nil
}

// Bytes returns the region's memory. Invalid after Release.
func (r *Region) Bytes() []byte {
	return r.mem
}

// Release unpins and unmaps the region. Only the first call has any
// effect.
func (r *Region) Release() error {
	var firstErr error
	r.release.Do(func() {
		if r.pinned {
			if err := unix.Munlock(r.mem); err != nil && firstErr == nil {
				firstErr = errors.Wrap(err, "munlock region")
			}
		}
		if r.mapped {
			if err := unix.Munmap(r.mem); err != nil && firstErr == nil {
				firstErr = errors.Wrap(err, "munmap region")
			}
		}
		if r.file != nil {
			if err := r.file.Close(); err != nil && firstErr == nil {
				firstErr = errors.Wrap(err, "close region file")
			}
		}
		r.mem = nil
	})
	return firstErr
}
