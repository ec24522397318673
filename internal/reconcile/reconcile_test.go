package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babyregistry/registry/internal/domain"
)

func kvRecord(itemID, claimer string, lastModified int64) domain.ClaimRecord {
	return domain.ClaimRecord{ItemID: itemID, Claimer: claimer, LastModified: lastModified, Source: domain.SourceKV}
}

func sheetRecord(itemID, claimer string, lastModified int64) domain.ClaimRecord {
	return domain.ClaimRecord{ItemID: itemID, Claimer: claimer, LastModified: lastModified, Source: domain.SourceSheet}
}

func TestReconcile_EndToEndScenario(t *testing.T) {
	kv := map[string]domain.ClaimRecord{
		"item-1": {ItemID: "item-1", Claimer: "A", Email: "a@x.com", Verified: false, LastModified: 100, Source: domain.SourceKV},
	}

	plan := Reconcile(kv, map[string]domain.ClaimRecord{})

	assert.Empty(t, plan.ToUpdateInKV)
	require.Len(t, plan.ToUpdateInSheet, 1)
	assert.Equal(t, kv["item-1"], plan.ToUpdateInSheet[0])
	assert.Empty(t, plan.Conflicts)
}

func TestReconcile_LastWriterWins(t *testing.T) {
	tests := []struct {
		name         string
		kv           domain.ClaimRecord
		sheet        domain.ClaimRecord
		wantKV       []domain.ClaimRecord
		wantSheet    []domain.ClaimRecord
		wantWinner   domain.Source
		wantConflict bool
	}{
		{
			name:         "newer kv record overwrites sheet",
			kv:           kvRecord("item-1", "A", 200),
			sheet:        sheetRecord("item-1", "B", 100),
			wantSheet:    []domain.ClaimRecord{kvRecord("item-1", "A", 200)},
			wantWinner:   domain.SourceKV,
			wantConflict: true,
		},
		{
			name:         "newer sheet record overwrites kv",
			kv:           kvRecord("item-1", "A", 100),
			sheet:        sheetRecord("item-1", "B", 200),
			wantKV:       []domain.ClaimRecord{sheetRecord("item-1", "B", 200)},
			wantWinner:   domain.SourceSheet,
			wantConflict: true,
		},
		{
			name:  "equal timestamps produce no write even when contents differ",
			kv:    kvRecord("item-1", "A", 100),
			sheet: sheetRecord("item-1", "B", 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Reconcile(
				map[string]domain.ClaimRecord{"item-1": tt.kv},
				map[string]domain.ClaimRecord{"item-1": tt.sheet},
			)
			assert.Equal(t, tt.wantKV, plan.ToUpdateInKV)
			assert.Equal(t, tt.wantSheet, plan.ToUpdateInSheet)
			if tt.wantConflict {
				require.Len(t, plan.Conflicts, 1)
				assert.Equal(t, tt.wantWinner, plan.Conflicts[0].Winner)
				assert.Equal(t, tt.kv.LastModified, plan.Conflicts[0].KVLastModified)
				assert.Equal(t, tt.sheet.LastModified, plan.Conflicts[0].SheetLastModified)
			} else {
				assert.Empty(t, plan.Conflicts)
				assert.True(t, plan.Empty())
			}
		})
	}
}

func TestReconcile_WholeRecordReplacement(t *testing.T) {
	kv := domain.ClaimRecord{ItemID: "item-1", Claimer: "A", Email: "a@x.com", Verified: true, Product: "Crib", LastModified: 300}
	sheet := domain.ClaimRecord{ItemID: "item-1", Claimer: "B", Email: "", Verified: false, Product: "", LastModified: 100}

	plan := Reconcile(map[string]domain.ClaimRecord{"item-1": kv}, map[string]domain.ClaimRecord{"item-1": sheet})

	require.Len(t, plan.ToUpdateInSheet, 1)
	assert.Equal(t, kv, plan.ToUpdateInSheet[0])
}

func TestReconcile_OneSidedPresence(t *testing.T) {
	plan := Reconcile(
		map[string]domain.ClaimRecord{"only-kv": kvRecord("only-kv", "A", 1)},
		map[string]domain.ClaimRecord{"only-sheet": sheetRecord("only-sheet", "B", 1)},
	)

	assert.Equal(t, []domain.ClaimRecord{kvRecord("only-kv", "A", 1)}, plan.ToUpdateInSheet)
	assert.Equal(t, []domain.ClaimRecord{sheetRecord("only-sheet", "B", 1)}, plan.ToUpdateInKV)
}

func TestReconcile_DisjointSortedAndIdempotent(t *testing.T) {
	kv := map[string]domain.ClaimRecord{
		"c": kvRecord("c", "kv", 5),
		"a": kvRecord("a", "kv", 1),
		"b": kvRecord("b", "kv", 9),
		"d": kvRecord("d", "kv", 3),
	}
	sheet := map[string]domain.ClaimRecord{
		"b": sheetRecord("b", "sheet", 2),
		"c": sheetRecord("c", "sheet", 8),
		"d": sheetRecord("d", "sheet", 3),
		"e": sheetRecord("e", "sheet", 4),
	}

	plan := Reconcile(kv, sheet)

	assert.Equal(t, []string{"a", "b"}, itemIDs(plan.ToUpdateInSheet))
	assert.Equal(t, []string{"c", "e"}, itemIDs(plan.ToUpdateInKV))

	seen := map[string]bool{}
	for _, r := range plan.ToUpdateInKV {
		seen[r.ItemID] = true
	}
	for _, r := range plan.ToUpdateInSheet {
		assert.False(t, seen[r.ItemID], "item %s scheduled for both stores", r.ItemID)
	}

	// Apply the plan to both snapshots and reconcile again: nothing left to do
	for _, r := range plan.ToUpdateInKV {
		kv[r.ItemID] = r
	}
	for _, r := range plan.ToUpdateInSheet {
		sheet[r.ItemID] = r
	}
	assert.True(t, Reconcile(kv, sheet).Empty())
}

func TestReconcile_EmptyInputs(t *testing.T) {
	plan := Reconcile(nil, nil)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Conflicts)
}

func TestReconcile_UsesMapKeyAsItemID(t *testing.T) {
	plan := Reconcile(map[string]domain.ClaimRecord{"item-7": {Claimer: "A", LastModified: 1}}, nil)
	require.Len(t, plan.ToUpdateInSheet, 1)
	assert.Equal(t, "item-7", plan.ToUpdateInSheet[0].ItemID)
}

func itemIDs(records []domain.ClaimRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ItemID)
	}
	return ids
}
