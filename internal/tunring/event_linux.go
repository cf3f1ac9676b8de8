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
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Event is a binary, edge-triggered wake object backed by an eventfd.
// Set marks it signaled, waking at most the threads currently parked in
// Wait; it is a wake hint, not a counted semaphore. One event per ring
// direction is exchanged at registration time.
type Event struct {
	fd int
}

// NewEvent returns an unsignaled event.
func NewEvent() (*Event, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, errors.Wrap(err, "eventfd")
	}
	return &Event{fd: fd}, nil
}

// FD exposes the underlying descriptor for handing to another process.
func (e *Event) FD() int {
	return e.fd
}

// dup returns an independently owned reference to the same event, so
// that the adapter's copy outlives whatever the caller does with its
// own handle.
func (e *Event) dup() (*Event, error) {
	fd, err := unix.FcntlInt(uintptr(e.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrap(err, "dup event")
	}
	return &Event{fd: fd}, nil
}

// Set signals the event. Safe to call from any goroutine, including
// while a waiter is mid-Wait; a set on an already signaled event is a
// no-op as far as waiters are concerned.
func (e *Event) Set() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(e.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the counter is saturated, which is still
		// signaled; nothing more to do.
		return
	}
}

// Wait blocks until the event is signaled, then consumes the signal.
func (e *Event) Wait() error {
	fds := []unix.PollFd{{Fd: int32(e.fd), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "poll event")
		}
		e.Clear()
		return nil
	}
}

// Clear consumes any pending signal without blocking.
func (e *Event) Clear() {
	var buf [8]byte
	for {
		_, err := unix.Read(e.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		return
	}
}

// Close releases the event's descriptor.
func (e *Event) Close() error {
	return unix.Close(e.fd)
}
