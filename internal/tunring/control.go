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
	"bytes"
	"encoding/binary"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// RingDescriptorWire is the fixed-layout form of one ring in a
// register-rings control message: the region size and the descriptors
// for the region file and the event, as numbered in the receiving
// process after transfer.
type RingDescriptorWire struct {
	RingSize uint32 `struc:"uint32,little"`
	RingFD   int32  `struc:"int32,little"`
	EventFD  int32  `struc:"int32,little"`
}

// RegisterRingsRequest is the control message an endpoint sends to
// register its ring pair. Send and Receive are named from the host's
// point of view, matching RegisterRings.
type RegisterRingsRequest struct {
	Send    RingDescriptorWire
	Receive RingDescriptorWire
}

// registerRingsRequestSize is the exact encoded size. The control
// channel rejects anything else; there are no optional fields and no
// trailing data.
const registerRingsRequestSize = 24

var strucOptions = &struc.Options{Order: binary.LittleEndian}

// MarshalBinary encodes the request into its fixed 24-byte layout.
func (m *RegisterRingsRequest) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOptions(&buf, m, strucOptions); err != nil {
		return nil, errors.Wrap(err, "pack register request")
	}
	return buf.Bytes(), nil
}

// ParseRegisterRingsRequest decodes a control message, rejecting any
// payload that is not exactly the fixed layout.
func ParseRegisterRingsRequest(data []byte) (*RegisterRingsRequest, error) {
	if len(data) != registerRingsRequestSize {
		return nil, errors.Wrapf(ErrInvalidParameter, "register request is %d bytes, want %d", len(data), registerRingsRequestSize)
	}
	var m RegisterRingsRequest
	if err := struc.UnpackWithOptions(bytes.NewReader(data), &m, strucOptions); err != nil {
		return nil, errors.Wrap(err, "unpack register request")
	}
	return &m, nil
}
