package claims

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/email"
	"github.com/babyregistry/registry/internal/kv"
	"github.com/babyregistry/registry/internal/logger"
)

// DefaultOrigin is the verification link origin used when neither the request nor config sets one
const DefaultOrigin = "http://localhost:8788"

// ItemCatalog lists the registry products
//
//go:generate mockgen -source=service.go -destination=../mocks/catalog.go -package=mocks -mock_names=ItemCatalog=MockItemCatalog
type ItemCatalog interface {
	ListItems(ctx context.Context) ([]domain.CatalogItem, error)
}

// Config holds configuration for the claims service
type Config struct {
	// BaseURL is the site origin used in verification links
	BaseURL string
}

// ClaimRequest is a guest claiming an item
type ClaimRequest struct {
	ItemID  string `json:"item"`
	Claimer string `json:"claimer"`
	Email   string `json:"email"`
	Product string `json:"product,omitempty"`
}

// VerificationRequest asks for a verification email for an existing claim
type VerificationRequest struct {
	ItemID   string `json:"itemId"`
	Email    string `json:"email"`
	ItemName string `json:"itemName,omitempty"`
	Origin   string `json:"-"`
}

// Service implements the live claim operations. Every KV read goes through the
// same normalizer as the sync path.
type Service struct {
	config  Config
	claims  *kv.ClaimStore
	tokens  kv.Store
	sender  email.Sender
	catalog ItemCatalog
	clock   adapter.Clock
}

// NewService creates a new claims service
func NewService(config Config, claims *kv.ClaimStore, tokens kv.Store, sender email.Sender, catalog ItemCatalog, clock adapter.Clock) *Service {
	return &Service{
		config:  config,
		claims:  claims,
		tokens:  tokens,
		sender:  sender,
		catalog: catalog,
		clock:   clock,
	}
}

// ListClaims returns every claim keyed by item id with emails masked
func (s *Service) ListClaims(ctx context.Context) (map[string]domain.ClaimRecord, error) {
	records, err := s.claims.ListAll(ctx, s.clock.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	masked := make(map[string]domain.ClaimRecord, len(records))
	for itemID, record := range records {
		masked[itemID] = record.Masked()
	}
	return masked, nil
}

// Claim stores an unverified claim stamped with the current time
func (s *Service) Claim(ctx context.Context, req ClaimRequest) (domain.ClaimRecord, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.Claimer = strings.TrimSpace(req.Claimer)
	req.Email = strings.TrimSpace(req.Email)
	if req.ItemID == "" || req.Claimer == "" || req.Email == "" {
		return domain.ClaimRecord{}, fmt.Errorf("%w: item, claimer and email", domain.ErrMissingFields)
	}
	if s.claims.IsReserved(req.ItemID) {
		return domain.ClaimRecord{}, fmt.Errorf("%w: reserved item id %q", domain.ErrInvalidClaim, req.ItemID)
	}

	product := req.Product
	if product == "" {
		product = req.ItemID
	}

	record := domain.ClaimRecord{
		ItemID:       req.ItemID,
		Claimer:      req.Claimer,
		Email:        req.Email,
		Product:      product,
		LastModified: s.clock.Now().UnixMilli(),
	}
	if err := s.claims.Put(ctx, record); err != nil {
		return domain.ClaimRecord{}, err
	}

	logger.InfoCtx(ctx, "Item claimed", zap.String("item_id", record.ItemID))
	return record.Masked(), nil
}

// CreateVerification stores a verification token and emails its link.
// The returned token is valid even when the email could not be delivered.
func (s *Service) CreateVerification(ctx context.Context, req VerificationRequest) (string, error) {
	if req.ItemID == "" || req.Email == "" {
		return "", fmt.Errorf("%w: email and itemId", domain.ErrMissingFields)
	}

	record, err := s.structuredClaim(ctx, req.ItemID)
	if err != nil {
		return "", err
	}
	if record.Verified {
		return "", domain.ErrAlreadyVerified
	}

	itemName := req.ItemName
	if itemName == "" {
		itemName = record.Product
	}
	return s.issueToken(ctx, req.ItemID, req.Email, itemName, req.Origin)
}

// ResendVerification issues a new token for the email already stored on the claim
func (s *Service) ResendVerification(ctx context.Context, itemID, origin string) (string, error) {
	if itemID == "" {
		return "", fmt.Errorf("%w: itemId", domain.ErrMissingFields)
	}

	record, err := s.structuredClaim(ctx, itemID)
	if err != nil {
		return "", err
	}
	return s.issueToken(ctx, itemID, record.Email, record.Product, origin)
}

// VerifyToken marks the claim behind token as verified and consumes the token
func (s *Service) VerifyToken(ctx context.Context, token string) (domain.ClaimRecord, error) {
	if token == "" {
		return domain.ClaimRecord{}, domain.ErrInvalidToken
	}

	raw, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return domain.ClaimRecord{}, domain.ErrInvalidToken
		}
		return domain.ClaimRecord{}, fmt.Errorf("failed to read verification token: %w", err)
	}

	var verification domain.VerificationToken
	if err := json.Unmarshal([]byte(raw), &verification); err != nil {
		return domain.ClaimRecord{}, domain.ErrInvalidToken
	}
	verification.Token = token

	now := s.clock.Now()
	if verification.Expired(now) {
		s.deleteToken(ctx, token)
		return domain.ClaimRecord{}, domain.ErrTokenExpired
	}

	rawClaim, err := s.claims.GetRaw(ctx, verification.ItemID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return domain.ClaimRecord{}, domain.ErrClaimNotFound
		}
		return domain.ClaimRecord{}, fmt.Errorf("failed to read claim: %w", err)
	}

	stored := domain.ParseStoredClaim(rawClaim)
	record := domain.ToClaimRecord(verification.ItemID, stored, now.UnixMilli())
	if _, legacy := stored.(domain.LegacyClaim); legacy {
		// Legacy claims carry no email; the token's address becomes the claim's
		record.Email = verification.Email
	}
	if record.Email != verification.Email {
		return domain.ClaimRecord{}, domain.ErrEmailMismatch
	}

	record.Verified = true
	record.LastModified = now.UnixMilli()
	if err := s.claims.Put(ctx, record); err != nil {
		return domain.ClaimRecord{}, err
	}

	s.deleteToken(ctx, token)

	msg, err := email.ConfirmationMessage(record.Email, productName(record.Product))
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		logger.WarnCtx(ctx, "Failed to send claim confirmation email",
			zap.String("item_id", record.ItemID),
			zap.Error(err),
		)
	}

	logger.InfoCtx(ctx, "Claim verified", zap.String("item_id", record.ItemID))
	return record.Masked(), nil
}

// ListItems returns the registry catalog
func (s *Service) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.catalog.ListItems(ctx)
}

// structuredClaim loads a claim that can carry an email
func (s *Service) structuredClaim(ctx context.Context, itemID string) (domain.ClaimRecord, error) {
	raw, err := s.claims.GetRaw(ctx, itemID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return domain.ClaimRecord{}, domain.ErrClaimNotFound
		}
		return domain.ClaimRecord{}, fmt.Errorf("failed to read claim: %w", err)
	}

	stored := domain.ParseStoredClaim(raw)
	if _, legacy := stored.(domain.LegacyClaim); legacy {
		return domain.ClaimRecord{}, domain.ErrInvalidClaim
	}
	return domain.ToClaimRecord(itemID, stored, s.clock.Now().UnixMilli()), nil
}

func (s *Service) issueToken(ctx context.Context, itemID, to, itemName, origin string) (string, error) {
	now := s.clock.Now()
	verification := domain.VerificationToken{
		Token:     uuid.NewString(),
		ItemID:    itemID,
		Email:     to,
		ExpiresAt: now.Add(domain.VerificationTTL).UnixMilli(),
	}

	data, err := json.Marshal(verification)
	if err != nil {
		return "", fmt.Errorf("failed to marshal verification token: %w", err)
	}
	if err := s.tokens.Put(ctx, verification.Token, string(data), domain.VerificationTTL); err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}

	link := fmt.Sprintf("%s/verify?token=%s", s.origin(origin), verification.Token)
	msg, err := email.VerificationMessage(to, productName(itemName), link)
	if err != nil {
		return verification.Token, fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		logger.WarnCtx(ctx, "Failed to send verification email", zap.String("item_id", itemID), zap.Error(err))
		return verification.Token, fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	logger.InfoCtx(ctx, "Verification email sent", zap.String("item_id", itemID))
	return verification.Token, nil
}

func (s *Service) deleteToken(ctx context.Context, token string) {
	if err := s.tokens.Delete(ctx, token); err != nil {
		logger.WarnCtx(ctx, "Failed to delete verification token", zap.Error(err))
	}
}

func (s *Service) origin(requested string) string {
	switch {
	case requested != "":
		return strings.TrimRight(requested, "/")
	case s.config.BaseURL != "":
		return strings.TrimRight(s.config.BaseURL, "/")
	default:
		return DefaultOrigin
	}
}

func productName(name string) string {
	if name == "" {
		return domain.DefaultProductName
	}
	return name
}
