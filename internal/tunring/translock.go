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

import "sync"

// transitionLock synchronizes adapter state transitions with the packet
// paths, used like RCU. Packet-path code holds it shared while touching
// the rings and re-reads the flags word to decide whether to proceed.
// Control-path code mutates the flags atomically and then calls Barrier,
// which waits out every shared holder that may have observed the old
// state. The lock never protects ring data itself; it only orders state
// observation.
type transitionLock struct {
	mu sync.RWMutex
}

func (l *transitionLock) RLock() {
	l.mu.RLock()
}

func (l *transitionLock) RUnlock() {
	l.mu.RUnlock()
}

// Barrier performs an exclusive acquire immediately followed by an
// exclusive release. On return, every shared holder that began before
// the caller's preceding flag mutation has finished, and every later
// shared holder observes the mutation.
func (l *transitionLock) Barrier() {
	l.mu.Lock()
	l.mu.Unlock() //nolint:staticcheck // empty critical section is the point
}
