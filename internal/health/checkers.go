// SPDX-License-Identifier: MIT

package health

import (
	"context"

	xfs "github.com/ManuGH/academy/internal/platform/fs"
)

// Pinger is satisfied by the session store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the session store as unhealthy when it cannot be reached.
type StoreChecker struct {
	backend string
	store   Pinger
}

func NewStoreChecker(backend string, store Pinger) *StoreChecker {
	return &StoreChecker{backend: backend, store: store}
}

func (c *StoreChecker) Name() string { return "store" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	if err := c.store.Ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: c.backend, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: c.backend}
}

// DirChecker verifies a directory exists and accepts writes.
type DirChecker struct {
	name string
	path string
}

func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	if err := xfs.EnsureWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy, Message: c.path}
}

// CatalogChecker is degraded while no curriculum is loaded. Sessions still
// work without one; they just start with no drills.
type CatalogChecker struct {
	loaded func() bool
}

func NewCatalogChecker(loaded func() bool) *CatalogChecker {
	return &CatalogChecker{loaded: loaded}
}

func (c *CatalogChecker) Name() string { return "curriculum" }

func (c *CatalogChecker) Check(_ context.Context) CheckResult {
	if !c.loaded() {
		return CheckResult{Status: StatusDegraded, Message: "catalog not loaded"}
	}
	return CheckResult{Status: StatusHealthy, Message: "catalog loaded"}
}
