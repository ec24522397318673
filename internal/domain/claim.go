package domain

import (
	"time"
)

// Source tags which store a claim record was read from.
// It only exists during reconciliation and is never persisted.
type Source string

const (
	SourceKV    Source = "kv"
	SourceSheet Source = "sheet"
)

// DefaultProductName is used in emails when neither the claim nor the request names the item
const DefaultProductName = "Baby Registry Item"

// VerificationTTL is how long a verification token stays valid
const VerificationTTL = 24 * time.Hour

// ClaimRecord is the canonical claim state for one registry item
type ClaimRecord struct {
	ItemID       string `json:"-"`
	Claimer      string `json:"claimer"`
	Email        string `json:"email"`
	Verified     bool   `json:"verified"`
	Product      string `json:"product"`
	LastModified int64  `json:"lastModified"` // epoch millis, the only input to conflict resolution
	Source       Source `json:"-"`
}

// ProductName returns the human readable product name, falling back to the item id
func (c ClaimRecord) ProductName() string {
	if c.Product != "" {
		return c.Product
	}
	return c.ItemID
}

// WithSource returns a copy of the record tagged with the given source
func (c ClaimRecord) WithSource(source Source) ClaimRecord {
	c.Source = source
	return c
}

// Masked returns a copy of the record with the email masked for untrusted clients
func (c ClaimRecord) Masked() ClaimRecord {
	c.Email = MaskEmail(c.Email)
	return c
}

// VerificationToken is the pending confirmation of a claim's email ownership
type VerificationToken struct {
	Token     string `json:"-"`
	ItemID    string `json:"itemId"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"` // epoch millis
}

// Expired reports whether the token is no longer valid at the given time
func (t VerificationToken) Expired(now time.Time) bool {
	return now.UnixMilli() > t.ExpiresAt
}

// CatalogItem is one product row of the registry spreadsheet
type CatalogItem struct {
	ID           string `json:"id"`
	Product      string `json:"product"`
	ProductZH    string `json:"productZH"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	Price        string `json:"price"`
	ImageURL     string `json:"imageUrl"`
	URL          string `json:"url"`
	ClaimedBy    string `json:"claimedBy"`
	ClaimerEmail string `json:"claimerEmail"`
}
