/*
 * Copyright 2025 Carver Automation Corporation.
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

package models

import (
	"encoding/json"
	"fmt"
)

// Tristate is a boolean that may be unknown. The zero value is Unknown.
type Tristate int8

const (
	Unknown Tristate = iota
	True
	False
)

// TristateOf converts a nullable vendor flag.
func TristateOf(b *bool) Tristate {
	if b == nil {
		return Unknown
	}

	return BoolTristate(*b)
}

// BoolTristate converts a known boolean.
func BoolTristate(b bool) Tristate {
	if b {
		return True
	}

	return False
}

// IsTrue reports whether the value is known to be true. Unknown is not true.
func (t Tristate) IsTrue() bool { return t == True }

// IsKnown reports whether the value is True or False.
func (t Tristate) IsKnown() bool { return t == True || t == False }

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Tristate(%d)", int8(t))
	}
}

// MarshalJSON renders Unknown as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	case Unknown:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("invalid tristate %d", int8(t))
	}
}

// UnmarshalJSON accepts true, false or null.
func (t *Tristate) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*t = TristateOf(v)

	return nil
}
