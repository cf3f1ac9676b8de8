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

	"github.com/prometheus/client_golang/prometheus"
)

// Statistics holds the adapter's traffic counters. In and Out are named
// from the host's point of view: In counts packets delivered up from
// the send ring, Out counts packets placed on the send ring toward the
// endpoint. Counters are updated lock-free from the packet paths.
type Statistics struct {
	InOctets        atomic.Uint64
	InUcastPackets  atomic.Uint64
	InDiscards      atomic.Uint64
	OutOctets       atomic.Uint64
	OutUcastPackets atomic.Uint64
	OutDiscards     atomic.Uint64
}

// StatisticsSnapshot is a point-in-time copy of the counters.
type StatisticsSnapshot struct {
	InOctets        uint64
	InUcastPackets  uint64
	InDiscards      uint64
	OutOctets       uint64
	OutUcastPackets uint64
	OutDiscards     uint64
}

// Snapshot copies the counters. The fields are read independently, so
// the snapshot is consistent per-counter, not across counters.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	return StatisticsSnapshot{
		InOctets:        s.InOctets.Load(),
		InUcastPackets:  s.InUcastPackets.Load(),
		InDiscards:      s.InDiscards.Load(),
		OutOctets:       s.OutOctets.Load(),
		OutUcastPackets: s.OutUcastPackets.Load(),
		OutDiscards:     s.OutDiscards.Load(),
	}
}

var (
	descInOctets = prometheus.NewDesc("tunring_in_octets_total",
		"Bytes delivered from the endpoint to the host stack.",
		[]string{"adapter"}, nil)
	descInPackets = prometheus.NewDesc("tunring_in_packets_total",
		"Packets delivered from the endpoint to the host stack.",
		[]string{"adapter"}, nil)
	descInDiscards = prometheus.NewDesc("tunring_in_discards_total",
		"Inbound packets dropped before delivery.",
		[]string{"adapter"}, nil)
	descOutOctets = prometheus.NewDesc("tunring_out_octets_total",
		"Bytes queued from the host stack toward the endpoint.",
		[]string{"adapter"}, nil)
	descOutPackets = prometheus.NewDesc("tunring_out_packets_total",
		"Packets queued from the host stack toward the endpoint.",
		[]string{"adapter"}, nil)
	descOutDiscards = prometheus.NewDesc("tunring_out_discards_total",
		"Outbound packets rejected before reaching the ring.",
		[]string{"adapter"}, nil)
)

// StatsCollector exposes an adapter's counters as prometheus metrics
// labeled with the adapter name.
type StatsCollector struct {
	name    string
	adapter *Adapter
}

// NewStatsCollector returns a collector for the adapter. Register it
// with a prometheus registry; the collector reads counters at scrape
// time.
func NewStatsCollector(name string, a *Adapter) *StatsCollector {
	return &StatsCollector{name: name, adapter: a}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descInOctets
	ch <- descInPackets
	ch <- descInDiscards
	ch <- descOutOctets
	ch <- descOutPackets
	ch <- descOutDiscards
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.adapter.Stats()
	ch <- prometheus.MustNewConstMetric(descInOctets, prometheus.CounterValue, float64(snap.InOctets), c.name)
	ch <- prometheus.MustNewConstMetric(descInPackets, prometheus.CounterValue, float64(snap.InUcastPackets), c.name)
	ch <- prometheus.MustNewConstMetric(descInDiscards, prometheus.CounterValue, float64(snap.InDiscards), c.name)
	ch <- prometheus.MustNewConstMetric(descOutOctets, prometheus.CounterValue, float64(snap.OutOctets), c.name)
	ch <- prometheus.MustNewConstMetric(descOutPackets, prometheus.CounterValue, float64(snap.OutUcastPackets), c.name)
	ch <- prometheus.MustNewConstMetric(descOutDiscards, prometheus.CounterValue, float64(snap.OutDiscards), c.name)
}
