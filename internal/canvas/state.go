// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the canvas data model: Instance, Connection and State.
//
// An Instance is a user-placed occurrence of a catalog template, identified by
// a stable id. It carries nothing but the template id and its raw property
// bag; what the properties mean is decided by the template.
//
// A Connection links two instances by id. Its meaning (ordering, link
// variables, compatibility) is decided by the categories of its endpoints,
// looked up in the catalog's connection table.
//
// A State is the aggregate snapshot. Instance order is the insertion order
// and is only ever used to break ties deterministically. Version and
// Timestamp identify the snapshot for caching and superseding; they never
// influence the emitted document.
package canvas

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/zclconf/go-cty/cty"
)

// Instance is a component placed on the canvas.
type Instance struct {
	ID         string
	TemplateID string
	Properties props.Bag
}

// DisplayName returns the instance's `name` property when it is a non-empty
// string, and its id otherwise.
func (i Instance) DisplayName() string {
	v, ok := i.Properties["name"]
	if ok && v != cty.NilVal && !v.IsNull() && v.IsKnown() && v.Type().Equals(cty.String) && v.AsString() != "" {
		return v.AsString()
	}
	return i.ID
}

func (i Instance) clone() Instance {
	i.Properties = i.Properties.Clone()
	return i
}

// Connection is a directed edge between two instances.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// State is an immutable snapshot of a canvas.
type State struct {
	Instances   []Instance
	Connections []Connection
	Version     uint64
	Timestamp   time.Time
}

// Instance returns the instance with the given id.
func (s *State) Instance(id string) (Instance, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s.Instances[i], true
	}
	return Instance{}, false
}

// IndexOf returns the insertion index of an instance, or -1.
func (s *State) IndexOf(id string) int {
	for i := range s.Instances {
		if s.Instances[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := &State{
		Instances:   make([]Instance, len(s.Instances)),
		Connections: append([]Connection(nil), s.Connections...),
		Version:     s.Version,
		Timestamp:   s.Timestamp,
	}
	for i, inst := range s.Instances {
		out.Instances[i] = inst.clone()
	}
	return out
}

// ContentHash identifies the content of the canvas: instances (in order,
// with their properties) and connections. Version and Timestamp are not part
// of the hash, so two snapshots with equal content share cached results.
//
// Every field is length-prefixed, so no choice of ids or property names can
// make two different snapshots encode alike.
func (s *State) ContentHash() common.Hash {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "instances %d\n", len(s.Instances))
	for _, inst := range s.Instances {
		writeField(&buf, inst.ID)
		writeField(&buf, inst.TemplateID)
		writeField(&buf, string(props.Canonical(inst.Properties)))
	}
	fmt.Fprintf(&buf, "connections %d\n", len(s.Connections))
	for _, c := range s.Connections {
		writeField(&buf, c.From)
		writeField(&buf, c.To)
	}
	return crypto.Keccak256Hash(buf.Bytes())
}

func writeField(buf *bytes.Buffer, s string) {
	fmt.Fprintf(buf, "%d:%s", len(s), s)
}
