// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package registry

import (
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/objectid"
)

// undoEntry - the before-image (or tombstone, via existed=false) of one
// write, exactly the write-ahead-log entry design notes §9 describes
type undoEntry struct {
	id      objectid.ID
	existed bool
	before  interface{}
}

// Session - a scoped transactional write buffer. One evaluator runs
// entirely inside one Session; Commit folds its undo log into the parent
// (or, at the outermost/block-boundary session, simply drops it since the
// writes already landed in the registry); Discard reverses every entry in
// LIFO order. Sessions nest through Nested to form a stack; ledger.ApplyBlock
// opens one outermost session per operation with Begin.
type Session struct {
	registry *Registry
	parent   *Session
	log      []undoEntry
	done     bool
}

// Begin - start a new outermost session directly on the registry
// (ledger.ApplyBlock begins one per operation)
func (r *Registry) Begin() *Session {
	return &Session{registry: r}
}

// Nested - start a child session scoped to one operation within the
// enclosing (block or another operation's) session
func (s *Session) Nested() *Session {
	if s.done {
		fault.Panicf("registry: Nested called on a session already committed or discarded")
	}
	return &Session{registry: s.registry, parent: s}
}

// Get - reads always go straight to the registry: because evaluators run
// to completion one at a time (§5), there is never an uncommitted write
// from a concurrently-running evaluator to avoid seeing.
func (s *Session) Get(id objectid.ID) (interface{}, bool) {
	return s.registry.Get(id)
}

// NextID - allocate a fresh instance id for a new entity
func (s *Session) NextID(t objectid.Type) objectid.ID {
	return s.registry.NextID(t)
}

// Put - write (insert or replace) an object, recording its prior state
func (s *Session) Put(id objectid.ID, obj interface{}) {
	before, existed := s.registry.objects[id]
	s.log = append(s.log, undoEntry{id: id, existed: existed, before: before})
	s.registry.objects[id] = obj
	s.registry.invalidate(id)
}

// Delete - remove an object, recording enough to restore it on Discard
func (s *Session) Delete(id objectid.ID) {
	before, existed := s.registry.objects[id]
	if !existed {
		return
	}
	s.log = append(s.log, undoEntry{id: id, existed: true, before: before})
	delete(s.registry.objects, id)
	s.registry.invalidate(id)
}

// Commit - fold this session's undo log into its parent so an ancestor
// discard still knows how to unwind it; the writes themselves are already
// visible in the registry and need no further action.
func (s *Session) Commit() {
	if s.done {
		fault.Panicf("registry: session committed or discarded twice")
	}
	if nil != s.parent {
		s.parent.log = append(s.parent.log, s.log...)
	}
	s.log = nil
	s.done = true
}

// Discard - unwind every write this session (and any committed-into-it
// child sessions) made, in reverse order, restoring before-images and
// removing tombstoned inserts.
func (s *Session) Discard() {
	if s.done {
		fault.Panicf("registry: session committed or discarded twice")
	}
	for i := len(s.log) - 1; i >= 0; i-- {
		e := s.log[i]
		if e.existed {
			s.registry.objects[e.id] = e.before
		} else {
			delete(s.registry.objects, e.id)
		}
		s.registry.invalidate(e.id)
	}
	s.log = nil
	s.done = true
}
