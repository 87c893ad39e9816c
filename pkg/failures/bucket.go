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

// Package failures classifies per-machine resolution failures into a closed
// set of kinds and accumulates every occurrence.
package failures

import (
	"encoding/json"
	"sync"

	"github.com/carverauto/updatescout/pkg/models"
)

// Kind labels the stage at which a machine's resolution failed or was annotated.
type Kind string

const (
	// MachineInfoMissing means the session or authorization lookup failed. Not fatal.
	MachineInfoMissing Kind = "machine_info_missing"
	// RequestFail means the update-list fetch failed. Fatal to the machine.
	RequestFail Kind = "request_fail"
	// MainParseError means the update-list response had the wrong shape. Fatal to the machine.
	MainParseError Kind = "main_parse_error"
	// InParseError means one update record could not be parsed. The record is skipped.
	InParseError Kind = "in_parse_error"
	// MissingValue means a parsed record lacks optional fields. Informational.
	MissingValue Kind = "missing_value"
	// EmptyPIN means the machine produced no update entries.
	EmptyPIN Kind = "empty_pin"
)

// Kinds lists every failure kind in pipeline order.
func Kinds() []Kind {
	return []Kind{MachineInfoMissing, RequestFail, MainParseError, InParseError, MissingValue, EmptyPIN}
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}

	return false
}

// Terminal reports whether the kind stops resolution of the machine.
func (k Kind) Terminal() bool {
	return k == RequestFail || k == MainParseError
}

// Record is one failure occurrence. Index is set for record-level kinds.
type Record struct {
	Kind      Kind             `json:"kind"`
	MachineID models.MachineID `json:"pin"`
	Index     *int             `json:"index,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	Raw       json.RawMessage  `json:"raw,omitempty"`
}

// New builds a Record, capturing err's message when present.
func New(kind Kind, id models.MachineID, err error) Record {
	rec := Record{Kind: kind, MachineID: id}
	if err != nil {
		rec.Detail = err.Error()
	}

	return rec
}

// AtIndex tags a record with the position and raw body of the offending update record.
func (r Record) AtIndex(idx int, raw json.RawMessage) Record {
	r.Index = &idx
	if raw != nil {
		r.Raw = append(json.RawMessage(nil), raw...)
	}

	return r
}

// Bucket accumulates records by kind. It never deduplicates or drops a
// record and is safe for concurrent use.
type Bucket struct {
	mu      sync.RWMutex
	records map[Kind][]Record
	total   int
}

// NewBucket returns an empty bucket.
func NewBucket() *Bucket {
	return &Bucket{records: make(map[Kind][]Record, len(Kinds()))}
}

// Add appends records in the given order.
func (b *Bucket) Add(recs ...Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range recs {
		b.records[r.Kind] = append(b.records[r.Kind], r)
		b.total++
	}
}

// Records returns a copy of the records of one kind in insertion order.
func (b *Bucket) Records(kind Kind) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]Record(nil), b.records[kind]...)
}

// Machines returns the machine identifier of each record of one kind.
func (b *Bucket) Machines(kind Kind) []models.MachineID {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]models.MachineID, 0, len(b.records[kind]))
	for _, r := range b.records[kind] {
		ids = append(ids, r.MachineID)
	}

	return ids
}

// Count returns the number of records of one kind.
func (b *Bucket) Count(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.records[kind])
}

// Counts summarises the bucket. Every known kind is present, zero or not.
func (b *Bucket) Counts() map[Kind]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[Kind]int, len(Kinds()))
	for _, k := range Kinds() {
		counts[k] = len(b.records[k])
	}

	for k, recs := range b.records {
		if !k.Valid() {
			counts[k] = len(recs)
		}
	}

	return counts
}

// Len returns the total number of records.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.total
}

// MarshalJSON renders the bucket as kind -> records with every known kind present.
func (b *Bucket) MarshalJSON() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[Kind][]Record, len(b.records))
	for _, k := range Kinds() {
		out[k] = []Record{}
	}

	for k, recs := range b.records {
		out[k] = recs
	}

	return json.Marshal(out)
}
