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

	"gvisor.dev/gvisor/pkg/tcpip"
)

type inboundPacket struct {
	proto   tcpip.NetworkProtocolNumber
	payload []byte
}

// testStack records inbound deliveries and link transitions.
type testStack struct {
	mu        sync.Mutex
	packets   []inboundPacket
	linkUp    bool
	injectErr error
}

func (s *testStack) InjectInbound(proto tcpip.NetworkProtocolNumber, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injectErr != nil {
		return s.injectErr
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	s.packets = append(s.packets, inboundPacket{proto: proto, payload: p})
	return nil
}

func (s *testStack) SetLinkState(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkUp = up
}

func (s *testStack) LinkUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkUp
}

func (s *testStack) Packets() []inboundPacket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inboundPacket(nil), s.packets...)
}
