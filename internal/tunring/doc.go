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

// Package tunring implements the data path of a virtual tunnel adapter.
//
// A user-space endpoint and the adapter exchange raw IP packets through a
// pair of shared-memory ring buffers, one per direction, without a system
// call per packet on the hot path. The adapter side plays the role the
// host networking stack expects of a network interface: it accepts
// outbound packet batches, delivers inbound packets upward, keeps
// monotonic statistics counters and reports link state.
//
// Each ring is a fixed-capacity circular byte buffer with single-writer
// head and tail offsets: the producer owns the tail, the consumer owns
// the head, and each side reads the other's offset with a plain atomic
// load. The rings live in caller-owned memory that registration pins for
// the lifetime of the connection, and each direction carries an
// edge-triggered wake event exchanged at registration time.
package tunring
