// Package access answers feature and role questions against a live tenancy context.
package access

import (
	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/tenancy"
)

// Decision is the outcome of a guard check.
type Decision string

const (
	Allow Decision = "ALLOW"
	Deny  Decision = "DENY"
)

func (d Decision) Allowed() bool { return d == Allow }

// snapshotSource is satisfied by *tenancy.Context.
type snapshotSource interface {
	Snapshot() tenancy.Snapshot
}

// Engine reads the tenancy context on every call; it never caches a decision.
type Engine struct {
	tc snapshotSource
}

func NewEngine(tc snapshotSource) *Engine {
	return &Engine{tc: tc}
}

// HasFeature is true only when the plan is present, active, and lists key.
func (e *Engine) HasFeature(key domain.FeatureKey) bool {
	s := e.tc.Snapshot()
	return hasFeature(s, key)
}

// HasAllFeatures is vacuously true for an empty set.
func (e *Engine) HasAllFeatures(keys ...domain.FeatureKey) bool {
	s := e.tc.Snapshot()
	for _, k := range keys {
		if !hasFeature(s, k) {
			return false
		}
	}
	return true
}

// HasAnyFeature is false for an empty set.
func (e *Engine) HasAnyFeature(keys ...domain.FeatureKey) bool {
	s := e.tc.Snapshot()
	for _, k := range keys {
		if hasFeature(s, k) {
			return true
		}
	}
	return false
}

func (e *Engine) Decide(required []domain.FeatureKey, requireAll bool) Decision {
	var ok bool
	if requireAll {
		ok = e.HasAllFeatures(required...)
	} else {
		ok = e.HasAnyFeature(required...)
	}
	if ok {
		return Allow
	}
	return Deny
}

// DecideRole allows when the current role is one of allowed. No role means Deny.
func (e *Engine) DecideRole(allowed ...domain.Role) Decision {
	role := e.tc.Snapshot().Role
	if role == "" {
		return Deny
	}
	for _, r := range allowed {
		if r == role {
			return Allow
		}
	}
	return Deny
}

func hasFeature(s tenancy.Snapshot, key domain.FeatureKey) bool {
	return s.IsSubscriptionValid && s.SubscriptionPlan.Includes(key)
}
