package quota

import (
	"log/slog"
	"sync"
	"time"
)

// Tier identifies an owner's quota tier.
type Tier string

// Possible tier values.
const (
	TierFree      Tier = "free"
	TierPro       Tier = "pro"
	TierUnlimited Tier = "unlimited"
)

// Denial reasons returned by TryAdmit.
const (
	ReasonQuotaExceeded = "quota_exceeded"
)

// Limits describes how much an owner on a given tier may consume per
// period. Items <= 0 means unlimited.
type Limits struct {
	Items  int
	Period time.Duration
}

// Entry is a read-only snapshot of one owner's ledger state.
type Entry struct {
	OwnerID     string
	Tier        Tier
	ItemsUsed   int
	ItemsLimit  int
	PeriodStart time.Time
}

// ownerEntry is the live, lock-guarded ledger state for one owner.
// Entries are shared across all concurrent jobs for the owner.
type ownerEntry struct {
	mu          sync.Mutex
	tier        Tier
	used        int
	periodStart time.Time
}

// Ledger tracks per-owner consumption counters. Entries are created
// lazily on first admission and reset lazily when their period elapses,
// so no background scheduler is needed.
type Ledger struct {
	mu          sync.Mutex
	owners      map[string]*ownerEntry
	limits      map[Tier]Limits
	defaultTier Tier
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewLedger creates a ledger with the given per-tier limits. Owners
// without an explicit tier assignment are treated as defaultTier.
func NewLedger(limits map[Tier]Limits, defaultTier Tier, logger *slog.Logger) *Ledger {
	return &Ledger{
		owners:      make(map[string]*ownerEntry),
		limits:      limits,
		defaultTier: defaultTier,
		logger:      logger.With("component", "quota_ledger"),
		now:         time.Now,
	}
}

// SetTier assigns an owner to a tier, creating the ledger entry if it
// does not exist yet.
func (l *Ledger) SetTier(ownerID string, tier Tier) {
	entry := l.entry(ownerID)
	entry.mu.Lock()
	entry.tier = tier
	entry.mu.Unlock()
}

// TryAdmit atomically checks the owner's remaining quota and reserves
// cost units of it. Returns granted=true when the reservation succeeded;
// otherwise granted=false with a denial reason. The critical section is
// a short check-and-increment; no I/O or blocking happens under the lock.
func (l *Ledger) TryAdmit(ownerID string, cost int) (bool, string) {
	if cost < 0 {
		cost = 0
	}

	entry := l.entry(ownerID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	limits := l.tierLimits(entry.tier)
	l.resetIfPeriodElapsedLocked(entry, limits.Period)

	if limits.Items > 0 && entry.used+cost > limits.Items {
		l.logger.Debug("admission denied",
			"owner_id", ownerID,
			"tier", entry.tier,
			"items_used", entry.used,
			"items_limit", limits.Items,
			"cost", cost)
		return false, ReasonQuotaExceeded
	}

	entry.used += cost
	return true, ""
}

// Refund returns cost units to the owner, floor-clamped at zero. A
// refund that would go negative indicates a double refund somewhere
// upstream; the ledger logs and clamps rather than corrupting state.
func (l *Ledger) Refund(ownerID string, cost int) {
	if cost <= 0 {
		return
	}

	entry := l.entry(ownerID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.used < cost {
		l.logger.Warn("refund exceeds usage, clamping to zero",
			"owner_id", ownerID,
			"items_used", entry.used,
			"refund", cost)
		entry.used = 0
		return
	}

	entry.used -= cost
}

// Snapshot returns the owner's current ledger state, applying any
// pending lazy period reset first.
func (l *Ledger) Snapshot(ownerID string) Entry {
	entry := l.entry(ownerID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	limits := l.tierLimits(entry.tier)
	l.resetIfPeriodElapsedLocked(entry, limits.Period)

	return Entry{
		OwnerID:     ownerID,
		Tier:        entry.tier,
		ItemsUsed:   entry.used,
		ItemsLimit:  limits.Items,
		PeriodStart: entry.periodStart,
	}
}

// entry returns the owner's ledger entry, creating it lazily.
func (l *Ledger) entry(ownerID string) *ownerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.owners[ownerID]
	if !ok {
		entry = &ownerEntry{
			tier:        l.defaultTier,
			periodStart: l.now().UTC(),
		}
		l.owners[ownerID] = entry
	}
	return entry
}

func (l *Ledger) tierLimits(tier Tier) Limits {
	if limits, ok := l.limits[tier]; ok {
		return limits
	}
	return l.limits[l.defaultTier]
}

// resetIfPeriodElapsedLocked zeroes the usage counter and advances the
// period start by whole periods when the current period has elapsed.
// Callers must hold entry.mu.
func (l *Ledger) resetIfPeriodElapsedLocked(entry *ownerEntry, period time.Duration) {
	if period <= 0 {
		return
	}

	now := l.now().UTC()
	elapsed := now.Sub(entry.periodStart)
	if elapsed < period {
		return
	}

	periods := elapsed / period
	entry.periodStart = entry.periodStart.Add(periods * period)
	entry.used = 0
}
