//go:build !linux

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

// Region is an owned reference to ring memory. Not supported on this
// platform.
type Region struct{}

func PinRegion(mem []byte) (*Region, error) {
	return nil, ErrUnsupported
}

func CreateFileRegion(path string, size int) (*Region, error) {
	return nil, ErrUnsupported
}

func OpenFileRegion(path string) (*Region, error) {
	return nil, ErrUnsupported
}

func (r *Region) Bytes() []byte { return nil }

func (r *Region) Release() error { return nil }
