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
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestRegisterRingsRequestLayout(t *testing.T) {
	req := &RegisterRingsRequest{
		Send:    RingDescriptorWire{RingSize: 0x25004, RingFD: 7, EventFD: 8},
		Receive: RingDescriptorWire{RingSize: 0x25004, RingFD: 9, EventFD: 10},
	}

	data, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != registerRingsRequestSize {
		t.Fatalf("encoded size = %d, want %d", len(data), registerRingsRequestSize)
	}

	// Fields are little-endian at fixed offsets; nothing is implicit.
	if got := binary.LittleEndian.Uint32(data[0:]); got != 0x25004 {
		t.Errorf("send ring size on wire = %#x, want %#x", got, 0x25004)
	}
	if got := int32(binary.LittleEndian.Uint32(data[4:])); got != 7 {
		t.Errorf("send ring fd on wire = %d, want 7", got)
	}
	if got := int32(binary.LittleEndian.Uint32(data[20:])); got != 10 {
		t.Errorf("receive event fd on wire = %d, want 10", got)
	}

	parsed, err := ParseRegisterRingsRequest(data)
	if err != nil {
		t.Fatalf("ParseRegisterRingsRequest: %v", err)
	}
	if diff := cmp.Diff(req, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRegisterRingsRequestRejectsWrongSize(t *testing.T) {
	for _, n := range []int{0, 1, registerRingsRequestSize - 1, registerRingsRequestSize + 1, 2 * registerRingsRequestSize} {
		_, err := ParseRegisterRingsRequest(make([]byte, n))
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("ParseRegisterRingsRequest(len %d) = %v, want ErrInvalidParameter", n, err)
		}
	}
}
