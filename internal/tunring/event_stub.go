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

import "github.com/pkg/errors"

// ErrUnsupported is returned on platforms without the wake primitives
// the data path needs.
var ErrUnsupported = errors.New("tunring: not supported on this platform")

// Event is a binary, edge-triggered wake object. Not supported on this
// platform.
type Event struct{}

func NewEvent() (*Event, error) {
	return nil, ErrUnsupported
}

func (e *Event) FD() int { return -1 }

func (e *Event) dup() (*Event, error) {
	return nil, ErrUnsupported
}

func (e *Event) Set() {}

func (e *Event) Wait() error {
	return ErrUnsupported
}

func (e *Event) Clear() {}

func (e *Event) Close() error {
	return nil
}
