package types

import (
	"time"

	"github.com/google/uuid"
)

// InstallStatus is the lifecycle status of an InstallRecord (spec.md §3).
type InstallStatus string

const (
	StatusSuccess InstallStatus = "success"
	StatusFailed  InstallStatus = "failed"
	StatusRemoved InstallStatus = "removed"
	StatusUpdated InstallStatus = "updated"
)

// InstallRecord is a persistent, append-only history row (spec.md §3
// "Install Record"). Rows are never deleted; see Testable Property 6.
type InstallRecord struct {
	UUID        uuid.UUID
	Name        string
	Backend     Backend
	Version     string // optional; empty means unknown/not applicable
	SourceURL   string // optional
	InstallPath string // optional
	Timestamp   time.Time
	Status      InstallStatus
	Metadata    string // optional free-form JSON
}

// NewInstallRecord builds a record with a fresh UUID and the current
// timestamp supplied by the caller (callers own the clock so tests stay
// deterministic).
func NewInstallRecord(name string, backend Backend, status InstallStatus, now time.Time) InstallRecord {
	return InstallRecord{
		UUID:      uuid.New(),
		Name:      name,
		Backend:   backend,
		Status:    status,
		Timestamp: now,
	}
}

// Snapshot is a named, timestamped reference to the set of install records
// that were `success` at the moment of creation (spec.md §3). It is the
// coarse-grained rollback target.
type Snapshot struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	PackageIDs  []uuid.UUID // install_records referenced by this snapshot
}

// CacheEntry is a single Metadata Cache row keyed by (Name, Backend)
// (spec.md §3). Entries older than Expiry are invalid and must be
// refreshed on next read (Testable Property 9).
type CacheEntry struct {
	Name         string
	Backend      Backend
	Version      string
	Description  string
	Dependencies []Dependency
	CachedAt     time.Time
	Expiry       time.Time
	HitCount     int64
}

// Expired reports whether the entry is past its TTL as of `now`.
func (c CacheEntry) Expired(now time.Time) bool {
	return now.After(c.Expiry)
}

// TransactionType names the kind of mutating operation a Transaction or
// Operation performs (spec.md §3, §4.5, §4.7).
type TransactionType string

const (
	TxInstall         TransactionType = "install"
	TxRemove          TransactionType = "remove"
	TxUpdate          TransactionType = "update"
	TxInstallManifest TransactionType = "install_from_manifest"
)

// TransactionStatus is the Transaction Manager's state machine (spec.md
// §4.3 diagram).
type TransactionStatus string

const (
	TxPlanning           TransactionStatus = "planning"
	TxInProgress         TransactionStatus = "in_progress"
	TxCompleted          TransactionStatus = "completed"
	TxFailed             TransactionStatus = "failed"
	TxRolledBack         TransactionStatus = "rolled_back"
	TxPartiallyCompleted TransactionStatus = "partially_completed"
)

// OperationStatus is the per-operation state inside commit() (spec.md
// §4.5: "Each transitions Pending -> InProgress -> Completed | Failed").
type OperationStatus string

const (
	OpPending    OperationStatus = "pending"
	OpInProgress OperationStatus = "in_progress"
	OpCompleted  OperationStatus = "completed"
	OpFailed     OperationStatus = "failed"
)

// Operation is one mutating step inside a Transaction. VersionBefore and
// VersionAfter make the inverse action computable without re-querying the
// backend (spec.md §3 "Transaction" and §9 "Rollback correctness").
type Operation struct {
	Type           TransactionType
	Name           string
	Backend        Backend
	VersionBefore  string
	VersionAfter   string
	Status         OperationStatus
	ConfigSnapshot string // path to a config-file snapshot taken at add_operation time, if any
}

// Transaction is the begin/commit/rollback envelope around a plan's
// operations (spec.md §3, §4.5).
type Transaction struct {
	UUID               uuid.UUID
	Type               TransactionType
	Status             TransactionStatus
	Operations         []Operation
	CreatedAt          time.Time
	CompletedAt        *time.Time
	RollbackSnapshotID string
	Description        string
}
