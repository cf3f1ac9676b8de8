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

import "sync/atomic"

// SendPackets queues a batch of outbound packets onto the send ring.
// The returned slice has one entry per packet: nil if the packet was
// framed into the ring, or the reason it was not. Later packets in a
// batch are still attempted after an earlier one fails, so a full ring
// rejects only the packets that do not fit.
//
// SendPackets may be called from any number of goroutines concurrently.
func (a *Adapter) SendPackets(packets [][]byte) []error {
	results := make([]error, len(packets))

	a.transitionLock.RLock()
	defer a.transitionLock.RUnlock()

	flags := atomic.LoadUint32(&a.flags)

	var sentPackets, sentOctets, discards uint64
	for i, packet := range packets {
		results[i] = a.sendPacket(flags, packet)
		if results[i] == nil {
			sentPackets++
			sentOctets += uint64(len(packet))
		} else {
			discards++
		}
	}

	a.stats.OutUcastPackets.Add(sentPackets)
	a.stats.OutOctets.Add(sentOctets)
	a.stats.OutDiscards.Add(discards)
	return results
}

// sendPacket frames one packet, holding the producer mutex for the
// reserve, copy and tail publish. The wake signal is raised inside the
// mutex so the tail the waiter observes always covers this packet.
func (a *Adapter) sendPacket(flags uint32, packet []byte) error {
	switch {
	case flags&flagPresent == 0:
		return ErrAdapterRemoved
	case flags&flagRunning == 0:
		return ErrAdapterPaused
	case flags&flagConnected == 0:
		return ErrDisconnected
	}
	if len(packet) > MaxIPPacketSize {
		return ErrPacketTooBig
	}

	r := a.device.send.ring

	a.device.send.mu.Lock()
	defer a.device.send.mu.Unlock()

	head := r.Head()
	tail := r.Tail()
	if head >= r.capacity || tail >= r.capacity {
		return ErrRingBroken
	}

	footprint := packetFootprint(uint32(len(packet)))
	if footprint > r.freeSpace(head, tail) {
		return ErrRingFull
	}

	r.writePacket(tail, packet)
	r.SetTail(r.wrap(tail + footprint))
	a.device.send.event.Set()
	return nil
}
