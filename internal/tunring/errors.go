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

import "github.com/pkg/errors"

// Control-path errors, reported synchronously by registration and
// teardown. Compare with errors.Is; the control path may wrap them with
// additional context.
var (
	// ErrAlreadyRegistered indicates a ring pair is already registered on
	// this adapter. Only one endpoint may own the data path at a time.
	ErrAlreadyRegistered = errors.New("tunring: ring pair already registered")

	// ErrInvalidParameter indicates malformed ring geometry or a missing
	// descriptor field in a registration request.
	ErrInvalidParameter = errors.New("tunring: invalid parameter")

	// ErrInsufficientResources indicates the adapter could not acquire a
	// resource (event reference, worker) needed to complete registration.
	ErrInsufficientResources = errors.New("tunring: insufficient resources")

	// ErrInvalidMemory indicates a caller-supplied ring region could not
	// be pinned.
	ErrInvalidMemory = errors.New("tunring: invalid ring memory")

	// ErrAdapterHalted indicates the adapter is being removed and no new
	// sessions may be opened.
	ErrAdapterHalted = errors.New("tunring: adapter removal pending")
)

// Per-packet errors on the send path. Each rejected packet in a batch
// carries exactly one of these; none of them affects adapter state or
// other packets in the batch.
var (
	// ErrAdapterRemoved: the adapter's device is gone or going away.
	ErrAdapterRemoved = errors.New("tunring: adapter removed")

	// ErrAdapterPaused: the host stack has paused the adapter.
	ErrAdapterPaused = errors.New("tunring: adapter paused")

	// ErrDisconnected: no endpoint has rings registered.
	ErrDisconnected = errors.New("tunring: media disconnected")

	// ErrPacketTooBig: payload exceeds MaxIPPacketSize.
	ErrPacketTooBig = errors.New("tunring: packet exceeds maximum IP packet size")

	// ErrRingBroken: the peer abandoned the ring (head or tail carries
	// the out-of-range sentinel). Terminal until re-registration.
	ErrRingBroken = errors.New("tunring: ring broken")

	// ErrRingFull: the packet's footprint exceeds the ring's free space.
	// Backpressure signal; the caller may retry later.
	ErrRingFull = errors.New("tunring: ring full")

	// ErrRingEmpty: no packet is available to a non-blocking consumer.
	ErrRingEmpty = errors.New("tunring: ring empty")
)
