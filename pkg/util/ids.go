package util

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out monotonically increasing ids per generator. Each
// committee run owns one, so ids are reproducible for identical inputs.
type IDGenerator struct {
	next atomic.Uint64
}

// NewIDGenerator creates a generator starting at 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// UniqueID returns prefix-N where N increases on every call.
func (g *IDGenerator) UniqueID(prefix string) string {
	n := g.next.Add(1)
	return fmt.Sprintf("%s-%04d", prefix, n)
}

var defaultIDs IDGenerator

// UniqueID draws from a process-wide generator.
func UniqueID(prefix string) string {
	return defaultIDs.UniqueID(prefix)
}

// ScopedIDs namespaces another generator's ids, so a later committee
// iteration never reissues an id from an earlier one.
type ScopedIDs struct {
	Scope string
	Base  interface{ UniqueID(prefix string) string }
}

// UniqueID returns scope-prefix-N.
func (s ScopedIDs) UniqueID(prefix string) string {
	return s.Base.UniqueID(s.Scope + "-" + prefix)
}
