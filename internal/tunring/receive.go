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
	"runtime"
	"sync/atomic"
	"time"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// processReceiveData is the receive worker. It drains the receive ring
// for as long as the adapter stays connected, spinning briefly on an
// empty ring before parking on the tail-moved event, and delivers each
// well-formed packet up to the network stack. Any malformed framing
// abandons the ring: the worker writes the broken sentinel into head
// and exits.
//
// The worker holds the transition lock shared while draining packets
// and drops it for the entire empty-ring wait, spin included, so a
// control-path barrier never stalls behind an idle worker yet still
// waits out any in-progress delivery.
func (a *Adapter) processReceiveData() error {
	r := a.device.receive.ring
	event := a.device.receive.event

	a.transitionLock.RLock()
	defer a.transitionLock.RUnlock()

	head := r.Head()
	if head >= r.capacity {
		return nil
	}

loop:
	for atomic.LoadUint32(&a.flags)&flagConnected != 0 {
		tail := r.Tail()
		if tail == head {
			// Empty. Drop the lock for the whole wait, so control-path
			// barriers never stall behind the spin: spin first, then arm
			// the alertable flag and park on the event. Ring memory stays
			// valid without the lock because teardown joins this
			// goroutine before releasing the regions.
			a.transitionLock.RUnlock()
			deadline := time.Now().Add(a.spin)
			for tail == head &&
				atomic.LoadUint32(&a.flags)&flagConnected != 0 &&
				time.Now().Before(deadline) {
				runtime.Gosched()
				tail = r.Tail()
			}
			if tail == head && atomic.LoadUint32(&a.flags)&flagConnected != 0 {
				r.SetAlertable(true)
				tail = r.Tail()
				if tail == head {
					err := event.Wait()
					r.SetAlertable(false)
					if err != nil {
						a.transitionLock.RLock()
						break loop
					}
				} else {
					// Data raced in while arming; take it without
					// parking, and swallow any signal the producer
					// raised for the armed flag.
					r.SetAlertable(false)
					event.Clear()
				}
			}
			a.transitionLock.RLock()
			continue
		}
		if tail >= r.capacity {
			break
		}

		// Frame the packet at head. The producer publishes tail after
		// the payload, so content between head and tail is complete.
		content := r.usedSpace(head, tail)
		if content < packetHeaderSize {
			break
		}
		size := r.packetSize(head)
		if size > MaxIPPacketSize {
			break
		}
		footprint := packetFootprint(size)
		if footprint > content {
			break
		}

		payload := r.packetPayload(head, size)
		proto, ok := classifyPacket(payload)

		flags := atomic.LoadUint32(&a.flags)
		switch {
		case !ok:
			break loop
		case flags&(flagPresent|flagRunning) != flagPresent|flagRunning:
			a.stats.InDiscards.Add(1)
		case a.stack.InjectInbound(proto, payload) != nil:
			a.stats.InDiscards.Add(1)
		default:
			a.stats.InUcastPackets.Add(1)
			a.stats.InOctets.Add(uint64(size))
		}

		head = r.wrap(head + footprint)
		r.SetHead(head)
	}

	if atomic.LoadUint32(&a.flags)&flagConnected != 0 {
		a.log.Warn("receive ring abandoned")
	}
	r.SetHead(brokenSentinel)
	return nil
}

// classifyPacket inspects the version nibble and minimum header length
// of an IP packet. A packet that is neither valid v4 nor valid v6 is a
// framing error, not a droppable packet.
func classifyPacket(payload []byte) (tcpip.NetworkProtocolNumber, bool) {
	if len(payload) == 0 {
		return 0, false
	}
	switch header.IPVersion(payload) {
	case header.IPv4Version:
		if len(payload) >= header.IPv4MinimumSize {
			return header.IPv4ProtocolNumber, true
		}
	case header.IPv6Version:
		if len(payload) >= header.IPv6MinimumSize {
			return header.IPv6ProtocolNumber, true
		}
	}
	return 0, false
}
