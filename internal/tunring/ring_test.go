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
	"testing"

	"github.com/pkg/errors"
)

func TestValidateCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int64
		wantErr  bool
	}{
		{"minimum", MinRingCapacity, false},
		{"maximum", MaxRingCapacity, false},
		{"mid power of two", 1 << 20, false},
		{"below minimum", MinRingCapacity / 2, true},
		{"above maximum", MaxRingCapacity * 2, true},
		{"zero", 0, true},
		{"negative", -4096, true},
		{"not power of two", MinRingCapacity + 4, true},
		{"in range not power of two", 0x30000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCapacity(tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateCapacity(%#x) = %v, wantErr %v", tt.capacity, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("validateCapacity(%#x) = %v, want ErrInvalidParameter", tt.capacity, err)
			}
		})
	}
}

func TestRingRegionSizeRoundTrip(t *testing.T) {
	for _, capacity := range []uint32{MinRingCapacity, 1 << 20, MaxRingCapacity} {
		size := RingRegionSize(capacity)
		got := capacityForRegion(size)
		if got != int64(capacity) {
			t.Errorf("capacityForRegion(RingRegionSize(%#x)) = %#x, want %#x", capacity, got, capacity)
		}
	}
}

func TestRingRegionSizeValue(t *testing.T) {
	// Header (12) + capacity + slack for the largest packet footprint
	// minus one alignment unit.
	want := 12 + 0x20000 + 65540 - 4
	if got := RingRegionSize(MinRingCapacity); got != want {
		t.Fatalf("RingRegionSize(MinRingCapacity) = %d, want %d", got, want)
	}
}

func TestPacketFootprint(t *testing.T) {
	tests := []struct {
		payload uint32
		want    uint32
	}{
		{0, 4},
		{1, 8},
		{4, 8},
		{5, 12},
		{64, 68},
		{MaxIPPacketSize, 65540},
	}
	for _, tt := range tests {
		if got := packetFootprint(tt.payload); got != tt.want {
			t.Errorf("packetFootprint(%d) = %d, want %d", tt.payload, got, tt.want)
		}
	}
}

func newTestRing(t *testing.T, capacity uint32) *ring {
	t.Helper()
	return newRingView(make([]byte, RingRegionSize(capacity)), capacity)
}

func TestRingSpaceAccounting(t *testing.T) {
	r := newTestRing(t, MinRingCapacity)

	tests := []struct {
		name       string
		head, tail uint32
	}{
		{"empty", 0, 0},
		{"one packet", 0, 68},
		{"mid ring", 0x10000, 0x18000},
		{"wrapped", 0x18000, 0x100},
		{"nearly full", 68, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			free := r.freeSpace(tt.head, tt.tail)
			used := r.usedSpace(tt.head, tt.tail)
			// One alignment unit is always reserved to distinguish full
			// from empty.
			if free+used != r.capacity-ringAlignment {
				t.Fatalf("free %d + used %d != capacity-%d (%d)", free, used, ringAlignment, r.capacity-ringAlignment)
			}
		})
	}
}

func TestRingWriteReadPacket(t *testing.T) {
	r := newTestRing(t, MinRingCapacity)

	payload := []byte{0x45, 0x00, 0x00, 0x14, 0xde, 0xad, 0xbe, 0xef}
	r.writePacket(0, payload)
	r.SetTail(packetFootprint(uint32(len(payload))))

	head := r.Head()
	size := r.packetSize(head)
	if int(size) != len(payload) {
		t.Fatalf("packetSize = %d, want %d", size, len(payload))
	}
	got := r.packetPayload(head, size)
	if string(got) != string(payload) {
		t.Fatalf("packetPayload = %x, want %x", got, payload)
	}
}

func TestRingPacketAtEndOfDataArea(t *testing.T) {
	// A maximum packet framed at the last valid offset spills into the
	// slack past the data area instead of wrapping.
	r := newTestRing(t, MinRingCapacity)
	tail := r.capacity - ringAlignment
	payload := make([]byte, MaxIPPacketSize)
	payload[0] = 0x60

	r.writePacket(tail, payload)
	if got := r.packetSize(tail); got != MaxIPPacketSize {
		t.Fatalf("packetSize = %d, want %d", got, MaxIPPacketSize)
	}
	got := r.packetPayload(tail, MaxIPPacketSize)
	if got[0] != 0x60 || len(got) != MaxIPPacketSize {
		t.Fatalf("payload at end of data area corrupted: first byte %#x, len %d", got[0], len(got))
	}

	if next := r.wrap(tail + packetFootprint(MaxIPPacketSize)); next >= r.capacity {
		t.Fatalf("wrapped offset %#x not below capacity %#x", next, r.capacity)
	}
}

func TestBrokenSentinelOutOfRange(t *testing.T) {
	r := newTestRing(t, MaxRingCapacity)
	r.SetHead(brokenSentinel)
	if r.Head() < r.capacity {
		t.Fatalf("broken sentinel %#x within capacity %#x", r.Head(), r.capacity)
	}
}

func TestAlertableFlag(t *testing.T) {
	r := newTestRing(t, MinRingCapacity)
	if r.Alertable() {
		t.Fatal("fresh ring alertable")
	}
	r.SetAlertable(true)
	if !r.Alertable() {
		t.Fatal("alertable not set")
	}
	r.SetAlertable(false)
	if r.Alertable() {
		t.Fatal("alertable not cleared")
	}
}
