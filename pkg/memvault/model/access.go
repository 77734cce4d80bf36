package model

import "time"

// MemoryAccess is the tagged variant controlling how a memory may be
// reached outside of capsule ownership/controllership. Access nesting is
// single-level: Scheduled/EventTriggered wrap one further MemoryAccess
// value, never a chain.
type MemoryAccess interface {
	isMemoryAccess()
	SecureCode() string
}

// AccessPrivate restricts a memory to capsule writers only.
type AccessPrivate struct {
	OwnerSecureCode string
}

func (AccessPrivate) isMemoryAccess()        {}
func (a AccessPrivate) SecureCode() string   { return a.OwnerSecureCode }

// AccessPublic makes a memory readable by anyone presenting the secure
// code (or, composed with SharingCore, by anyone at all).
type AccessPublic struct {
	OwnerSecureCode string
}

func (AccessPublic) isMemoryAccess()       {}
func (a AccessPublic) SecureCode() string  { return a.OwnerSecureCode }

// AccessCustom grants read access to an explicit set of groups and
// individuals.
type AccessCustom struct {
	Groups          []string
	Individuals     []PersonRef
	OwnerSecureCode string
}

func (AccessCustom) isMemoryAccess()       {}
func (a AccessCustom) SecureCode() string  { return a.OwnerSecureCode }

// AccessScheduled wraps an inner access grant that only takes effect after
// AccessibleAfter.
type AccessScheduled struct {
	Access          MemoryAccess
	AccessibleAfter time.Time
	OwnerSecureCode string
}

func (AccessScheduled) isMemoryAccess()       {}
func (a AccessScheduled) SecureCode() string  { return a.OwnerSecureCode }

// AccessEventTriggered wraps an inner access grant that only takes effect
// once TriggerEvent has fired.
type AccessEventTriggered struct {
	Access          MemoryAccess
	TriggerEvent    string
	OwnerSecureCode string
}

func (AccessEventTriggered) isMemoryAccess()       {}
func (a AccessEventTriggered) SecureCode() string  { return a.OwnerSecureCode }

// EffectivelyPublic resolves whether access, at time now, currently grants
// read access to anyone (as opposed to gated by membership/capsule
// writers). Scheduled/EventTriggered resolve by inspecting their wrapped
// access once their gating condition is satisfied; EventTriggered requires
// the caller to indicate the event has fired via eventFired, since the
// engine does not itself observe external events.
func EffectivelyPublic(a MemoryAccess, now time.Time, eventFired bool) bool {
	switch v := a.(type) {
	case AccessPublic:
		return true
	case AccessScheduled:
		if now.Before(v.AccessibleAfter) {
			return false
		}
		return EffectivelyPublic(v.Access, now, eventFired)
	case AccessEventTriggered:
		if !eventFired {
			return false
		}
		return EffectivelyPublic(v.Access, now, eventFired)
	default:
		return false
	}
}
