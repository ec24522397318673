package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/claims"
	"github.com/babyregistry/registry/internal/config"
	"github.com/babyregistry/registry/internal/email"
	"github.com/babyregistry/registry/internal/kv"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/sheets"
	"github.com/babyregistry/registry/internal/store"
)

var errEmailNotConfigured = errors.New("email.sendgrid_api_key is not configured")

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configFile string
		envPath    string
	)

	cmd := &cobra.Command{
		Use:           "registry-cli",
		Short:         "Operate on registry claims in the KV store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&envPath, "env", "config/", "Path to environment files")

	withService := func(run func(ctx context.Context, svc *claims.Service) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(cmd.Context(), configFile, envPath)
			if err != nil {
				return err
			}
			defer logger.Flush(2 * time.Second)

			out, err := run(cmd.Context(), svc)
			if err != nil {
				return err
			}
			return printJSON(out)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "claims",
		Short: "List every claim with masked emails",
		RunE: withService(func(ctx context.Context, svc *claims.Service) (interface{}, error) {
			return svc.ListClaims(ctx)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "items",
		Short: "List the registry catalog",
		RunE: withService(func(ctx context.Context, svc *claims.Service) (interface{}, error) {
			return svc.ListItems(ctx)
		}),
	})

	var claimReq claims.ClaimRequest
	claimCmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim an item for a guest",
		RunE: withService(func(ctx context.Context, svc *claims.Service) (interface{}, error) {
			return svc.Claim(ctx, claimReq)
		}),
	}
	claimCmd.Flags().StringVar(&claimReq.ItemID, "item", "", "Item id")
	claimCmd.Flags().StringVar(&claimReq.Claimer, "claimer", "", "Guest name")
	claimCmd.Flags().StringVar(&claimReq.Email, "email", "", "Guest email")
	claimCmd.Flags().StringVar(&claimReq.Product, "product", "", "Product name, defaults to the item id")
	cmd.AddCommand(claimCmd)

	var verifyReq claims.VerificationRequest
	requestCmd := &cobra.Command{
		Use:   "request-verification",
		Short: "Email a verification link for an unverified claim",
		RunE: withService(func(ctx context.Context, svc *claims.Service) (interface{}, error) {
			token, err := svc.CreateVerification(ctx, verifyReq)
			if err != nil {
				return nil, err
			}
			return map[string]string{"token": token}, nil
		}),
	}
	requestCmd.Flags().StringVar(&verifyReq.ItemID, "item", "", "Item id")
	requestCmd.Flags().StringVar(&verifyReq.Email, "email", "", "Claim email")
	requestCmd.Flags().StringVar(&verifyReq.ItemName, "item-name", "", "Item name shown in the email")
	requestCmd.Flags().StringVar(&verifyReq.Origin, "origin", "", "Site origin for the verification link")
	cmd.AddCommand(requestCmd)

	var (
		resendItem   string
		resendOrigin string
	)
	resendCmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Issue a fresh verification link for a claim",
		RunE: withService(func(ctx context.Context, svc *claims.Service) (interface{}, error) {
			token, err := svc.ResendVerification(ctx, resendItem, resendOrigin)
			if err != nil {
				return nil, err
			}
			return map[string]string{"token": token}, nil
		}),
	}
	resendCmd.Flags().StringVar(&resendItem, "item", "", "Item id")
	resendCmd.Flags().StringVar(&resendOrigin, "origin", "", "Site origin for the verification link")
	cmd.AddCommand(resendCmd)

	var token string
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Redeem a verification token",
		RunE: withService(func(ctx context.Context, svc *claims.Service) (interface{}, error) {
			record, err := svc.VerifyToken(ctx, token)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"itemId": record.ItemID, "claim": record}, nil
		}),
	}
	verifyCmd.Flags().StringVar(&token, "token", "", "Verification token")
	cmd.AddCommand(verifyCmd)

	return cmd
}

// newService wires the claims service against the configured KV backend
func newService(ctx context.Context, configFile, envPath string) (*claims.Service, error) {
	config.ChdirRepoRoot()
	cfg, err := config.LoadSyncWorkerConfig(configFile, envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "registry-cli",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	clock := adapter.NewClock()

	claimsKV, tokensKV, err := openNamespaces(cfg, clock)
	if err != nil {
		return nil, err
	}
	claimStore := kv.NewClaimStore(claimsKV, kv.ClaimStoreConfig{
		Concurrency:      cfg.KV.Concurrency,
		ReservedPrefixes: cfg.KV.ReservedPrefixes,
	})

	credentials, err := cfg.Sheets.ServiceAccountJSON()
	if err != nil {
		return nil, err
	}
	sheetsHTTP := adapter.NewHTTPClient(cfg.Sheets.HTTPTimeout)
	tokenProvider, err := sheets.NewTokenProvider(credentials, cfg.Sheets.TokenURL, sheetsHTTP, clock)
	if err != nil {
		return nil, err
	}
	catalog := sheets.NewCatalog(sheets.NewClient(sheetsHTTP, tokenProvider, cfg.Sheets.APIBaseURL, cfg.Sheets.SpreadsheetID), cfg.Sheets.CatalogRange)

	var sender email.Sender = unconfiguredSender{}
	if cfg.Email.SendGridAPIKey != "" {
		sender, err = email.NewSendGridSender(email.SendGridConfig{
			APIKey:      cfg.Email.SendGridAPIKey,
			URL:         cfg.Email.SendGridURL,
			FromAddress: cfg.Email.FromAddress,
		}, adapter.NewHTTPClient(cfg.Email.HTTPTimeout))
		if err != nil {
			return nil, err
		}
	} else {
		logger.WarnCtx(ctx, "SendGrid is not configured, verification emails will fail")
	}

	logger.DebugCtx(ctx, "Claims service ready", zap.String("kv_backend", cfg.KV.Backend))
	return claims.NewService(claims.Config{BaseURL: cfg.Email.BaseURL}, claimStore, tokensKV, sender, catalog, clock), nil
}

// openNamespaces returns the claims and verification token namespaces
func openNamespaces(cfg *config.SyncWorkerConfig, clock adapter.Clock) (kv.Store, kv.Store, error) {
	if cfg.KV.Backend == config.KVBackendPostgres {
		db, err := store.Open(cfg.KV.Database.DSN(), store.PoolConfig{
			MaxOpenConns:    cfg.KV.Database.MaxOpenConns,
			MaxIdleConns:    cfg.KV.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.KV.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.KV.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv.NewPGStore(db, cfg.KV.ClaimsNamespace, clock), kv.NewPGStore(db, cfg.KV.TokensNamespace, clock), nil
	}

	if cfg.KV.Cloudflare.TokensNamespaceID == "" {
		return nil, nil, errors.New("kv.cloudflare.tokens_namespace_id is required")
	}
	cfClient, err := adapter.NewCloudflareKVClient(cfg.KV.Cloudflare.APIToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Cloudflare client: %w", err)
	}
	return kv.NewCloudflareStore(cfClient, cfg.KV.Cloudflare.AccountID, cfg.KV.Cloudflare.ClaimsNamespaceID),
		kv.NewCloudflareStore(cfClient, cfg.KV.Cloudflare.AccountID, cfg.KV.Cloudflare.TokensNamespaceID),
		nil
}

// unconfiguredSender fails every send
type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, email.Message) error {
	return errEmailNotConfigured
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
