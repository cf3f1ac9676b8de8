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
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"
	"gvisor.dev/gvisor/pkg/tcpip"
)

// Adapter state flags, combined into one atomically updated word. All
// three must be set for an outbound packet to be accepted; connected
// alone keeps the receive worker looping; present and running
// additionally gate inbound delivery upward.
const (
	flagRunning   uint32 = 1 << 0 // paused vs running
	flagPresent   uint32 = 1 << 1 // removal pending vs present
	flagConnected uint32 = 1 << 2 // endpoint has rings registered
)

// defaultSpinInterval bounds the receive worker's busy-wait before it
// falls back to blocking on the tail-moved event. Tuned to typical
// scheduler granularity; override with WithSpinInterval.
const defaultSpinInterval = 50 * time.Millisecond

// adapterCount tracks live adapters process-wide. It is incremented by
// New and decremented by Halt; it reaches zero again only after the
// last adapter has halted.
var adapterCount atomic.Int64

// AdapterCount reports the number of live adapters in the process.
func AdapterCount() int64 {
	return adapterCount.Load()
}

// NetworkStack is the upward interface the adapter delivers into. It
// stands in for the host networking stack: InjectInbound hands it one
// decoded packet and returns a per-packet accept/drop outcome, and
// SetLinkState reports the adapter's media connect state.
type NetworkStack interface {
	InjectInbound(proto tcpip.NetworkProtocolNumber, packet []byte) error
	SetLinkState(up bool)
}

// Adapter is one virtual tunnel adapter instance: the flags word, the
// transition lock, statistics, and the device state holding at most one
// registered ring pair.
type Adapter struct {
	flags uint32

	// transitionLock is held shared by the packet paths and used as a
	// publication barrier by state transitions. See transitionLock.
	transitionLock transitionLock

	stack NetworkStack
	stats Statistics
	log   *logrus.Entry
	spin  time.Duration

	device struct {
		// regMu serializes registration against teardown, so a session
		// closed while its registration is still being built cannot
		// observe half-assigned device state.
		regMu sync.Mutex

		// owner is the session that registered the current ring pair.
		// Exactly one registration may be live at a time, and only the
		// owning session may unregister it.
		owner atomic.Pointer[Session]

		send struct {
			region *Region
			ring   *ring
			event  *Event
			// mu serializes all concurrent producers against the single
			// send ring.
			mu sync.Mutex
		}

		receive struct {
			region *Region
			ring   *ring
			event  *Event
			tomb   *tomb.Tomb
		}
	}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSpinInterval sets how long the receive worker busy-waits on an
// empty ring before parking on the tail-moved event.
func WithSpinInterval(d time.Duration) Option {
	return func(a *Adapter) { a.spin = d }
}

// WithLogger replaces the adapter's logger.
func WithLogger(log *logrus.Entry) Option {
	return func(a *Adapter) { a.log = log }
}

// New creates an adapter delivering into stack. The adapter starts
// present, paused and disconnected, and reports link-down.
func New(name string, stack NetworkStack, opts ...Option) *Adapter {
	a := &Adapter{
		stack: stack,
		spin:  defaultSpinInterval,
		log:   logrus.WithFields(logrus.Fields{"component": "tunring", "adapter": name}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.stack.SetLinkState(false)
	adapterCount.Add(1)
	atomic.OrUint32(&a.flags, flagPresent)
	return a
}

// Restart allows active operation; the paused/running toggle driven by
// the host stack.
func (a *Adapter) Restart() {
	atomic.OrUint32(&a.flags, flagRunning)
}

// Pause stops active operation. In-flight packet-path work completes
// against the old state before Pause returns.
func (a *Adapter) Pause() {
	atomic.AndUint32(&a.flags, ^flagRunning)
	a.transitionLock.Barrier()
}

// SetPresent toggles the removal-pending state. Clearing presence
// publishes the change to every packet-path reader before returning;
// restoring it needs no barrier, since stale readers only ever fail
// closed.
func (a *Adapter) SetPresent(present bool) {
	if present {
		atomic.OrUint32(&a.flags, flagPresent)
		return
	}
	atomic.AndUint32(&a.flags, ^flagPresent)
	a.transitionLock.Barrier()
}

// Halt marks the adapter as going away and drops it from the
// process-wide count. The owning session must be closed first; Halt
// does not tear rings down itself.
func (a *Adapter) Halt() {
	atomic.AndUint32(&a.flags, ^flagPresent)
	a.transitionLock.Barrier()
	adapterCount.Add(-1)
	a.log.Info("adapter halted")
}

// Stats returns a snapshot of the adapter's counters.
func (a *Adapter) Stats() StatisticsSnapshot {
	return a.stats.Snapshot()
}

// Session is an open handle on the adapter's data device. The session
// that registers rings becomes their owner; closing it tears them down.
type Session struct {
	adapter *Adapter
	closed  atomic.Bool
}

// Open returns a new session, failing while the adapter's removal is
// pending.
func (a *Adapter) Open() (*Session, error) {
	a.transitionLock.RLock()
	defer a.transitionLock.RUnlock()
	if atomic.LoadUint32(&a.flags)&flagPresent == 0 {
		return nil, ErrAdapterHalted
	}
	return &Session{adapter: a}, nil
}

// Close releases the session. If the session owns a registered ring
// pair, the pair is torn down first; otherwise Close is a no-op beyond
// marking the session unusable.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.adapter.unregisterRings(s)
	return nil
}
