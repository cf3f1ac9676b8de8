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
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatsCollector(t *testing.T) {
	a := New("stats0", &testStack{})
	defer a.Halt()

	a.stats.InOctets.Store(1500)
	a.stats.InUcastPackets.Store(10)
	a.stats.InDiscards.Store(1)
	a.stats.OutOctets.Store(3000)
	a.stats.OutUcastPackets.Store(20)
	a.stats.OutDiscards.Store(2)

	expected := `
# HELP tunring_in_discards_total Inbound packets dropped before delivery.
# TYPE tunring_in_discards_total counter
tunring_in_discards_total{adapter="stats0"} 1
# HELP tunring_in_octets_total Bytes delivered from the endpoint to the host stack.
# TYPE tunring_in_octets_total counter
tunring_in_octets_total{adapter="stats0"} 1500
# HELP tunring_in_packets_total Packets delivered from the endpoint to the host stack.
# TYPE tunring_in_packets_total counter
tunring_in_packets_total{adapter="stats0"} 10
# HELP tunring_out_discards_total Outbound packets rejected before reaching the ring.
# TYPE tunring_out_discards_total counter
tunring_out_discards_total{adapter="stats0"} 2
# HELP tunring_out_octets_total Bytes queued from the host stack toward the endpoint.
# TYPE tunring_out_octets_total counter
tunring_out_octets_total{adapter="stats0"} 3000
# HELP tunring_out_packets_total Packets queued from the host stack toward the endpoint.
# TYPE tunring_out_packets_total counter
tunring_out_packets_total{adapter="stats0"} 20
`
	if err := testutil.CollectAndCompare(NewStatsCollector("stats0", a), strings.NewReader(expected)); err != nil {
		t.Fatalf("collector output mismatch: %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	var s Statistics
	s.InOctets.Store(7)
	s.OutDiscards.Store(3)
	snap := s.Snapshot()
	if snap.InOctets != 7 || snap.OutDiscards != 3 || snap.InUcastPackets != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
