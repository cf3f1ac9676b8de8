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

// tunring-demo wires an adapter to an in-process endpoint and pumps
// traffic through the ring pair in both directions, then prints the
// adapter's counters. It exercises the same code a tunnel process
// would, minus the descriptor transfer between processes.
package main

import (
	"encoding/binary"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gvisor.dev/gvisor/pkg/tcpip"

	"github.com/FDlucifer/wintun/internal/tunring"
)

var (
	capacity uint32
	count    int
	size     int
	spin     time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "tunring-demo",
		Short: "Pump packets through an adapter/endpoint ring pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	root.Flags().Uint32Var(&capacity, "capacity", tunring.MinRingCapacity, "ring capacity in bytes (power of two)")
	root.Flags().IntVar(&count, "count", 10000, "packets to pump in each direction")
	root.Flags().IntVar(&size, "size", 1280, "payload size in bytes")
	root.Flags().DurationVar(&spin, "spin", 50*time.Millisecond, "receive worker spin interval")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// sink forwards deliveries from the adapter to the pump loop.
type sink struct {
	log      *logrus.Entry
	received chan []byte
}

func (s *sink) InjectInbound(proto tcpip.NetworkProtocolNumber, payload []byte) error {
	p := make([]byte, len(payload))
	copy(p, payload)
	s.received <- p
	return nil
}

func (s *sink) SetLinkState(up bool) {
	s.log.WithField("up", up).Info("link state")
}

func run() error {
	log := logrus.WithField("component", "tunring-demo")

	if size < 20 || size > tunring.MaxIPPacketSize {
		return errors.Errorf("payload size %d outside [20, %d]", size, tunring.MaxIPPacketSize)
	}

	stack := &sink{log: log, received: make(chan []byte, count)}
	adapter := tunring.New("demo0", stack, tunring.WithSpinInterval(spin))
	adapter.Restart()
	defer adapter.Halt()

	session, err := adapter.Open()
	if err != nil {
		return err
	}
	defer session.Close()

	endpoint, err := tunring.NewEndpoint(capacity)
	if err != nil {
		return err
	}
	defer endpoint.Close()

	// Round-trip the registration request through its wire form, the
	// way a control channel between two processes would carry it.
	rings := endpoint.Descriptors()
	req := &tunring.RegisterRingsRequest{
		Send: tunring.RingDescriptorWire{
			RingSize: uint32(len(rings.Send.Memory)),
			RingFD:   -1,
			EventFD:  int32(rings.Send.Event.FD()),
		},
		Receive: tunring.RingDescriptorWire{
			RingSize: uint32(len(rings.Receive.Memory)),
			RingFD:   -1,
			EventFD:  int32(rings.Receive.Event.FD()),
		},
	}
	wire, err := req.MarshalBinary()
	if err != nil {
		return err
	}
	parsed, err := tunring.ParseRegisterRingsRequest(wire)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"bytes":        len(wire),
		"send_size":    parsed.Send.RingSize,
		"receive_size": parsed.Receive.RingSize,
	}).Info("register request round-tripped")

	if err := session.RegisterRings(rings); err != nil {
		return err
	}

	start := time.Now()

	// Endpoint to host.
	go func() {
		pkt := make([]byte, size)
		pkt[0] = 0x45
		binary.BigEndian.PutUint16(pkt[2:], uint16(size))
		for i := 0; i < count; i++ {
			binary.LittleEndian.PutUint32(pkt[16:], uint32(i))
			for {
				err := endpoint.SendPacket(pkt)
				if err == nil {
					break
				}
				if !errors.Is(err, tunring.ErrRingFull) {
					log.WithError(err).Error("endpoint send failed")
					return
				}
				time.Sleep(10 * time.Microsecond)
			}
		}
	}()
	for i := 0; i < count; i++ {
		<-stack.received
	}
	inElapsed := time.Since(start)

	// Host to endpoint.
	start = time.Now()
	go func() {
		pkt := make([]byte, size)
		pkt[0] = 0x45
		for i := 0; i < count; i++ {
			for {
				res := adapter.SendPackets([][]byte{pkt})
				if res[0] == nil {
					break
				}
				if !errors.Is(res[0], tunring.ErrRingFull) {
					log.WithError(res[0]).Error("adapter send failed")
					return
				}
				time.Sleep(10 * time.Microsecond)
			}
		}
	}()
	for i := 0; i < count; i++ {
		if _, err := endpoint.ReceivePacket(); err != nil {
			return errors.WithMessage(err, "endpoint receive")
		}
	}
	outElapsed := time.Since(start)

	snap := adapter.Stats()
	log.WithFields(logrus.Fields{
		"in_packets":   snap.InUcastPackets,
		"in_octets":    snap.InOctets,
		"in_elapsed":   inElapsed,
		"out_packets":  snap.OutUcastPackets,
		"out_octets":   snap.OutOctets,
		"out_elapsed":  outElapsed,
		"in_discards":  snap.InDiscards,
		"out_discards": snap.OutDiscards,
	}).Info("pump complete")
	return nil
}
