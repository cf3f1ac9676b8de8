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
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Ring geometry constants. These are the wire contract with the peer
// process and must not change between the two sides of a ring.
const (
	// ringAlignment is the unit all packet footprints and ring offsets
	// are multiples of.
	ringAlignment = 4

	// packetHeaderSize is the length field preceding each payload.
	packetHeaderSize = 4

	// MaxIPPacketSize bounds a single packet payload.
	MaxIPPacketSize = 0xFFFF

	// maxPacketFootprint is the aligned size of the largest packet.
	maxPacketFootprint = (packetHeaderSize + MaxIPPacketSize + ringAlignment - 1) &^ (ringAlignment - 1)

	// MinRingCapacity and MaxRingCapacity bound the data capacity of a
	// ring. Capacity must be a power of two.
	MinRingCapacity = 0x20000   // 128 KiB
	MaxRingCapacity = 0x4000000 // 64 MiB

	// ringHeaderSize is the size of the ring header preceding the data
	// area: head, tail and the alertable flag.
	ringHeaderSize = 12

	// brokenSentinel stored into head or tail marks the ring abandoned.
	// Any offset >= capacity has the same meaning; this is the canonical
	// value the implementation writes.
	brokenSentinel = ^uint32(0)
)

// RingRegionSize returns the size of the memory region backing a ring of
// the given capacity. The region holds the ring header, the data area,
// and slack equal to the largest packet footprint minus one alignment
// unit so that no packet ever wraps across the end of the data area.
func RingRegionSize(capacity uint32) int {
	return ringHeaderSize + int(capacity) + maxPacketFootprint - ringAlignment
}

// capacityForRegion inverts RingRegionSize. The result may be negative
// or otherwise out of bounds for a bogus region size; validateCapacity
// catches that.
func capacityForRegion(regionSize int) int64 {
	return int64(regionSize) - ringHeaderSize - (maxPacketFootprint - ringAlignment)
}

func validateCapacity(capacity int64) error {
	if capacity < MinRingCapacity || capacity > MaxRingCapacity {
		return errors.Wrapf(ErrInvalidParameter, "ring capacity %d outside [%d, %d]", capacity, MinRingCapacity, MaxRingCapacity)
	}
	if bits.OnesCount64(uint64(capacity)) != 1 {
		return errors.Wrapf(ErrInvalidParameter, "ring capacity %d is not a power of two", capacity)
	}
	return nil
}

// packetFootprint returns the aligned size a payload occupies in a
// ring: length header plus payload, rounded up to the alignment unit.
func packetFootprint(payloadSize uint32) uint32 {
	return (packetHeaderSize + payloadSize + ringAlignment - 1) &^ (ringAlignment - 1)
}

// ringHeader is the shared-memory layout at the start of a ring region.
// head is mutated only by the consumer, tail only by the producer; both
// sides read both fields with atomic loads.
type ringHeader struct {
	head      uint32
	tail      uint32
	alertable int32
}

// ring is a view over a mapped ring region. It carries no state of its
// own beyond the capacity; all mutable state lives in the shared memory.
type ring struct {
	mem      []byte
	capacity uint32
}

// newRingView wraps an already validated region. The caller guarantees
// len(mem) == RingRegionSize(capacity) and capacity passed
// validateCapacity.
func newRingView(mem []byte, capacity uint32) *ring {
	return &ring{mem: mem, capacity: capacity}
}

func (r *ring) header() *ringHeader {
	return (*ringHeader)(unsafe.Pointer(&r.mem[0]))
}

func (r *ring) data() []byte {
	return r.mem[ringHeaderSize:]
}

// Head returns the byte offset of the oldest unread packet.
func (r *ring) Head() uint32 {
	return atomic.LoadUint32(&r.header().head)
}

func (r *ring) SetHead(v uint32) {
	atomic.StoreUint32(&r.header().head, v)
}

// Tail returns the byte offset of the next free slot.
func (r *ring) Tail() uint32 {
	return atomic.LoadUint32(&r.header().tail)
}

func (r *ring) SetTail(v uint32) {
	atomic.StoreUint32(&r.header().tail, v)
}

// Alertable reports whether the consumer is parked and wants a wake
// signal on the next write.
func (r *ring) Alertable() bool {
	return atomic.LoadInt32(&r.header().alertable) != 0
}

func (r *ring) SetAlertable(alertable bool) {
	var v int32
	if alertable {
		v = 1
	}
	atomic.StoreInt32(&r.header().alertable, v)
}

// wrap reduces an offset modulo the capacity. Valid only because
// capacity is a power of two.
func (r *ring) wrap(v uint32) uint32 {
	return v & (r.capacity - 1)
}

// freeSpace returns the bytes a producer may write given a consistent
// head/tail snapshot. One alignment unit is reserved so head == tail
// unambiguously means empty rather than full.
func (r *ring) freeSpace(head, tail uint32) uint32 {
	return r.wrap(head - tail - ringAlignment)
}

// usedSpace returns the bytes of framed packets between head and tail.
func (r *ring) usedSpace(head, tail uint32) uint32 {
	return r.wrap(tail - head)
}

// packetSize reads the length header of the packet at head. The caller
// has verified at least packetHeaderSize bytes of used space.
func (r *ring) packetSize(head uint32) uint32 {
	return binary.LittleEndian.Uint32(r.data()[head:])
}

// packetPayload returns the payload of the packet at head as a direct
// slice into the ring region. The slack past the data area guarantees
// the payload is contiguous.
func (r *ring) packetPayload(head, size uint32) []byte {
	off := int(head) + packetHeaderSize
	return r.data()[off : off+int(size)]
}

// writePacket frames payload at tail. The caller holds the producer
// role for this ring and has verified free space for the footprint.
func (r *ring) writePacket(tail uint32, payload []byte) {
	d := r.data()
	binary.LittleEndian.PutUint32(d[tail:], uint32(len(payload)))
	copy(d[int(tail)+packetHeaderSize:], payload)
}
