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
	"sync"

	"github.com/pkg/errors"
)

// Endpoint is the peer side of a ring pair: what a tunnel process holds
// after allocating rings and registering them with an adapter. It
// produces into the receive ring (packets toward the host) and consumes
// from the send ring (packets from the host).
//
// Each direction is internally serialized, so one goroutine may send
// while another receives, but concurrent senders queue behind a mutex.
type Endpoint struct {
	send struct {
		mu    sync.Mutex
		ring  *ring
		event *Event
	}
	receive struct {
		mu    sync.Mutex
		ring  *ring
		event *Event
	}
}

// NewEndpoint allocates a ring pair of the given capacity, both rings
// zeroed and their events unsignaled.
func NewEndpoint(capacity uint32) (*Endpoint, error) {
	if err := validateCapacity(int64(capacity)); err != nil {
		return nil, err
	}

	e := &Endpoint{}
	var err error
	e.send.ring = newRingView(make([]byte, RingRegionSize(capacity)), capacity)
	e.receive.ring = newRingView(make([]byte, RingRegionSize(capacity)), capacity)
	if e.send.event, err = NewEvent(); err != nil {
		return nil, err
	}
	if e.receive.event, err = NewEvent(); err != nil {
		e.send.event.Close()
		return nil, err
	}
	return e, nil
}

// Descriptors returns the registration request for this endpoint's
// rings, suitable for Session.RegisterRings. The endpoint retains
// ownership of the memory and events.
func (e *Endpoint) Descriptors() *RegisterRings {
	return &RegisterRings{
		Send:    RingDescriptor{Memory: e.send.ring.mem, Event: e.send.event},
		Receive: RingDescriptor{Memory: e.receive.ring.mem, Event: e.receive.event},
	}
}

// SendPacket frames one packet toward the host on the receive ring. The
// wake event is raised only when the consumer has declared itself
// parked, so the fast path is a couple of atomic stores.
func (e *Endpoint) SendPacket(payload []byte) error {
	if len(payload) > MaxIPPacketSize {
		return ErrPacketTooBig
	}

	r := e.receive.ring

	e.receive.mu.Lock()
	defer e.receive.mu.Unlock()

	head := r.Head()
	tail := r.Tail()
	if head >= r.capacity || tail >= r.capacity {
		return ErrRingBroken
	}

	footprint := packetFootprint(uint32(len(payload)))
	if footprint > r.freeSpace(head, tail) {
		return ErrRingFull
	}

	r.writePacket(tail, payload)
	r.SetTail(r.wrap(tail + footprint))
	if r.Alertable() {
		e.receive.event.Set()
	}
	return nil
}

// TryReceivePacket returns the next packet from the host, or
// ErrRingEmpty when none is queued. The payload is copied out of the
// ring before head advances.
func (e *Endpoint) TryReceivePacket() ([]byte, error) {
	r := e.send.ring

	e.send.mu.Lock()
	defer e.send.mu.Unlock()

	head := r.Head()
	if head >= r.capacity {
		return nil, ErrRingBroken
	}
	tail := r.Tail()
	if tail >= r.capacity {
		return nil, ErrRingBroken
	}
	if tail == head {
		return nil, ErrRingEmpty
	}

	content := r.usedSpace(head, tail)
	if content < packetHeaderSize {
		return nil, ErrRingBroken
	}
	size := r.packetSize(head)
	if size > MaxIPPacketSize {
		return nil, ErrRingBroken
	}
	footprint := packetFootprint(size)
	if footprint > content {
		return nil, ErrRingBroken
	}

	payload := make([]byte, size)
	copy(payload, r.packetPayload(head, size))
	r.SetHead(r.wrap(head + footprint))
	return payload, nil
}

// ReceivePacket blocks until a packet arrives from the host or the ring
// breaks. The host signals the send event for every packet it frames,
// so a plain wait between polls suffices.
func (e *Endpoint) ReceivePacket() ([]byte, error) {
	for {
		payload, err := e.TryReceivePacket()
		if !errors.Is(err, ErrRingEmpty) {
			return payload, err
		}
		if err := e.send.event.Wait(); err != nil {
			return nil, err
		}
	}
}

// Close releases the endpoint's events. Ring memory is garbage
// collected once the adapter's registration, which pins it, is gone.
// Close must not be called while a registration is live.
func (e *Endpoint) Close() error {
	err := e.send.event.Close()
	if err2 := e.receive.event.Close(); err == nil {
		err = err2
	}
	return err
}
