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
	"sync/atomic"

	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

// RingDescriptor names one ring an endpoint hands to the adapter: the
// memory region backing it and the event used to signal tail movement.
type RingDescriptor struct {
	// Memory is the full ring region, sized RingRegionSize(capacity)
	// for some valid capacity. The endpoint owns the allocation; the
	// adapter pins it for the life of the registration.
	Memory []byte

	// Event is the tail-moved wake object for this ring. The adapter
	// duplicates it, so the endpoint keeps its own reference.
	Event *Event
}

// RegisterRings is a complete registration request: the send ring the
// adapter produces into and the receive ring it consumes from, both
// named from the host's point of view.
type RegisterRings struct {
	Send    RingDescriptor
	Receive RingDescriptor
}

// RegisterRings attaches a ring pair to the session's adapter. On
// success the session owns the registration, the adapter is connected,
// the receive worker is running, and the link is reported up. On
// failure the adapter is left exactly as it was.
func (s *Session) RegisterRings(rings *RegisterRings) error {
	a := s.adapter

	a.device.regMu.Lock()
	defer a.device.regMu.Unlock()

	if s.closed.Load() {
		return errors.WithMessage(ErrInvalidParameter, "session closed")
	}
	if !a.device.owner.CompareAndSwap(nil, s) {
		return ErrAlreadyRegistered
	}

	// undo is the failure ladder, applied in reverse. Resetting the
	// owner runs last so a concurrent registration cannot slip in while
	// half-built state is still being torn down.
	var undo []func()
	fail := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		a.device.owner.Store(nil)
		return err
	}

	sendCapacity := capacityForRegion(len(rings.Send.Memory))
	if err := validateCapacity(sendCapacity); err != nil {
		return fail(errors.WithMessage(err, "send ring"))
	}
	receiveCapacity := capacityForRegion(len(rings.Receive.Memory))
	if err := validateCapacity(receiveCapacity); err != nil {
		return fail(errors.WithMessage(err, "receive ring"))
	}

	sendEvent, err := rings.Send.Event.dup()
	if err != nil {
		return fail(errors.WithMessagef(ErrInsufficientResources, "send ring: %v", err))
	}
	undo = append(undo, func() { sendEvent.Close() })

	receiveEvent, err := rings.Receive.Event.dup()
	if err != nil {
		return fail(errors.WithMessagef(ErrInsufficientResources, "receive ring: %v", err))
	}
	undo = append(undo, func() { receiveEvent.Close() })

	sendRegion, err := PinRegion(rings.Send.Memory)
	if err != nil {
		return fail(errors.WithMessage(err, "send ring"))
	}
	undo = append(undo, func() { sendRegion.Release() })

	receiveRegion, err := PinRegion(rings.Receive.Memory)
	if err != nil {
		return fail(errors.WithMessage(err, "receive ring"))
	}
	undo = append(undo, func() { receiveRegion.Release() })

	a.device.send.region = sendRegion
	a.device.send.ring = newRingView(sendRegion.Bytes(), uint32(sendCapacity))
	a.device.send.event = sendEvent
	a.device.receive.region = receiveRegion
	a.device.receive.ring = newRingView(receiveRegion.Bytes(), uint32(receiveCapacity))
	a.device.receive.event = receiveEvent
	undo = append(undo, func() {
		a.device.send.region = nil
		a.device.send.ring = nil
		a.device.send.event = nil
		a.device.receive.region = nil
		a.device.receive.ring = nil
		a.device.receive.event = nil
	})

	atomic.OrUint32(&a.flags, flagConnected)

	if err := a.startReceiveWorker(); err != nil {
		atomic.AndUint32(&a.flags, ^flagConnected)
		a.transitionLock.Barrier()
		return fail(errors.WithMessage(err, "receive worker"))
	}

	a.stack.SetLinkState(true)
	a.log.WithField("send_capacity", sendCapacity).
		WithField("receive_capacity", receiveCapacity).
		Info("rings registered")
	return nil
}

// startReceiveWorker launches the worker on a fresh tomb. The tomb is
// replaced per registration so a previous worker's death does not
// poison the next one.
func (a *Adapter) startReceiveWorker() error {
	t := &tomb.Tomb{}
	a.device.receive.tomb = t
	t.Go(a.processReceiveData)
	return nil
}

// unregisterRings tears down the session's registration. Only the
// owning session has any effect; for everyone else this is a no-op, so
// Session.Close is always safe.
//
// Ordering matters throughout: the connected flag falls and is
// published before anything is dismantled, the worker is woken and
// joined before its ring memory goes away, and the send ring is marked
// broken before its region is released so a peer polling it sees the
// sentinel rather than stale offsets.
func (a *Adapter) unregisterRings(s *Session) {
	a.device.regMu.Lock()
	defer a.device.regMu.Unlock()

	if !a.device.owner.CompareAndSwap(s, nil) {
		return
	}

	atomic.AndUint32(&a.flags, ^flagConnected)
	a.transitionLock.Barrier()

	a.device.receive.event.Set()
	a.stack.SetLinkState(false)

	t := a.device.receive.tomb
	t.Kill(nil)
	t.Wait()

	a.device.send.ring.SetTail(brokenSentinel)
	a.device.send.event.Set()

	a.device.receive.region.Release()
	a.device.receive.event.Close()
	a.device.send.region.Release()
	a.device.send.event.Close()

	a.device.send.region = nil
	a.device.send.ring = nil
	a.device.send.event = nil
	a.device.receive.region = nil
	a.device.receive.ring = nil
	a.device.receive.event = nil
	a.device.receive.tomb = nil

	a.log.Info("rings unregistered")
}
