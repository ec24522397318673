// Package reconcile decides which claim records must be copied between the
// KV namespace and the registry sheet. It performs no I/O.
package reconcile

import (
	"sort"

	"github.com/babyregistry/registry/internal/domain"
)

// Conflict describes an item present in both stores with differing timestamps
type Conflict struct {
	ItemID            string
	Winner            domain.Source
	KVLastModified    int64
	SheetLastModified int64
}

// Plan is the outcome of a reconciliation. Both update lists are sorted by item id
// and never share an item id.
type Plan struct {
	ToUpdateInKV    []domain.ClaimRecord // winning sheet records
	ToUpdateInSheet []domain.ClaimRecord // winning KV records
	Conflicts       []Conflict
}

// Empty reports whether the plan requires no writes
func (p Plan) Empty() bool {
	return len(p.ToUpdateInKV) == 0 && len(p.ToUpdateInSheet) == 0
}

// Reconcile compares both snapshots item by item under last-writer-wins on LastModified.
// A record missing on one side is copied from the other. Equal timestamps produce no write.
// Records are replaced whole, never merged field by field.
func Reconcile(kvClaims, sheetClaims map[string]domain.ClaimRecord) Plan {
	var plan Plan

	for _, itemID := range unionKeys(kvClaims, sheetClaims) {
		kvRecord, inKV := kvClaims[itemID]
		sheetRecord, inSheet := sheetClaims[itemID]
		kvRecord.ItemID = itemID
		sheetRecord.ItemID = itemID

		switch {
		case inKV && !inSheet:
			plan.ToUpdateInSheet = append(plan.ToUpdateInSheet, kvRecord)
		case inSheet && !inKV:
			plan.ToUpdateInKV = append(plan.ToUpdateInKV, sheetRecord)
		case kvRecord.LastModified > sheetRecord.LastModified:
			plan.ToUpdateInSheet = append(plan.ToUpdateInSheet, kvRecord)
			plan.Conflicts = append(plan.Conflicts, conflict(itemID, domain.SourceKV, kvRecord, sheetRecord))
		case sheetRecord.LastModified > kvRecord.LastModified:
			plan.ToUpdateInKV = append(plan.ToUpdateInKV, sheetRecord)
			plan.Conflicts = append(plan.Conflicts, conflict(itemID, domain.SourceSheet, kvRecord, sheetRecord))
		}
	}

	return plan
}

func conflict(itemID string, winner domain.Source, kvRecord, sheetRecord domain.ClaimRecord) Conflict {
	return Conflict{
		ItemID:            itemID,
		Winner:            winner,
		KVLastModified:    kvRecord.LastModified,
		SheetLastModified: sheetRecord.LastModified,
	}
}

func unionKeys(a, b map[string]domain.ClaimRecord) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
