package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"", ""},
		{"alice@example.com", "al***@example.com"},
		{"ab@example.com", "ab@example.com"},
		{"a@example.com", "a@example.com"},
		{"no-domain", "no-domain"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.email))
		})
	}
}

func TestGenerateItemID(t *testing.T) {
	assert.Equal(t, "baby-monitor-v2", GenerateItemID("Baby Monitor (v2)"))
	assert.Equal(t, "crib", GenerateItemID("  Crib!! "))
	assert.Equal(t, "", GenerateItemID("***"))
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("boom")

	var err error = &FetchError{Store: SourceKV, Err: cause}
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Equal(t, "fetch kv claims: boom", err.Error())

	err = fmt.Errorf("wrapped: %w", &AuthError{Err: cause})
	assert.ErrorIs(t, err, ErrAuth)
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)

	err = &WriteError{Store: SourceSheet, ItemID: "item-1", Err: cause}
	assert.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, "write sheet item item-1: boom", err.Error())
	assert.Equal(t, "write kv claims: boom", (&WriteError{Store: SourceKV, Err: cause}).Error())

	assert.ErrorIs(t, &LogError{Err: cause}, ErrLog)
}

func TestSyncLogEntry_Row(t *testing.T) {
	entry := SyncLogEntry{
		Timestamp: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Success:   false,
		Stats: SyncStats{
			KVTotal:        3,
			SheetTotal:     5,
			UpdatedInKV:    2,
			UpdatedInSheet: 1,
		},
		Duration:     1500 * time.Millisecond,
		ErrorMessage: "fetch kv claims: boom",
	}

	assert.Equal(t, []string{
		"2024-05-01T12:30:00.000Z",
		"FAILURE",
		"3",
		"5",
		"2",
		"1",
		"1500ms",
		"fetch kv claims: boom",
	}, entry.Row())

	entry.Success = true
	entry.ErrorMessage = ""
	row := entry.Row()
	assert.Equal(t, "SUCCESS", row[1])
	assert.Equal(t, "", row[7])
}

func TestVerificationToken_Expired(t *testing.T) {
	now := time.UnixMilli(10_000)
	assert.False(t, VerificationToken{ExpiresAt: 10_000}.Expired(now))
	assert.True(t, VerificationToken{ExpiresAt: 9_999}.Expired(now))
}
