package cli

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nilnode/nildb/internal/config"
	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/dataplane"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/lifecycle"
	"github.com/nilnode/nildb/internal/nuc"
	"github.com/nilnode/nildb/internal/queryengine"
	"github.com/nilnode/nildb/internal/revocation"
	"github.com/nilnode/nildb/internal/server"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the node's HTTP server",
	Long: `Start this node: open its primary and data databases, derive its
identity from its configured secret key, wire the capability engine, data
plane, and query engine together, and serve them over HTTP until
interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	primary, data, err := openDatabases(cfg)
	if err != nil {
		return err
	}
	defer primary.Close()
	defer data.Close()

	entities := store.New(primary, data)
	if err := entities.EnsurePrimaryTables(context.Background()); err != nil {
		return fmt.Errorf("ensuring primary tables: %w", err)
	}

	nodeDID, err := deriveNodeDID(cfg.Node.SecretKey)
	if err != nil {
		return fmt.Errorf("deriving node identity: %w", err)
	}

	trustAnchorDID, err := identity.ParseDID("did:key:" + cfg.TrustAnchor.PublicKey)
	if err != nil {
		return fmt.Errorf("parsing trust anchor did: %w", err)
	}

	admins, err := cfg.AdminDIDs()
	if err != nil {
		return fmt.Errorf("parsing admin dids: %w", err)
	}

	revocationClient := revocation.New(revocation.Config{BaseURL: cfg.TrustAnchor.BaseURL})
	engine := nuc.NewEngine(nodeDID, trustAnchorDID, revocationClient, entities, admins)

	cache := lifecycle.NewBuilderCache(entities)
	lifec := lifecycle.New(entities, cache)

	guards, err := queryengine.NewGuardEngine()
	if err != nil {
		return fmt.Errorf("building guard engine: %w", err)
	}
	queries := queryengine.New(entities, guards, cache)

	plane := dataplane.New(entities)
	system := sysinfo.New(entities, Version(), nodeDID, cfg.Node.PublicEndpoint)

	srv := server.New(entities, engine, plane, queries, lifec, cache, system, nodeDID)
	router := server.NewRouter(srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Ports.Web),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	log.Info().
		Str("did", nodeDID.String()).
		Str("addr", httpSrv.Addr).
		Msg("node listening")

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	log.Info().Msg("node stopped")
	return nil
}

func openDatabases(cfg *config.Config) (*database.Store, *database.Store, error) {
	primary, err := database.Open(database.Config{Path: cfg.DB.URI + cfg.DB.NamePrimary})
	if err != nil {
		return nil, nil, fmt.Errorf("opening primary database: %w", err)
	}

	data, err := database.Open(database.Config{Path: cfg.DB.URI + cfg.DB.NameData})
	if err != nil {
		primary.Close()
		return nil, nil, fmt.Errorf("opening data database: %w", err)
	}

	return primary, data, nil
}

// deriveNodeDID turns the configured hex-encoded Ed25519 seed into the
// node's did:key identifier.
func deriveNodeDID(secretKeyHex string) (identity.DID, error) {
	seed, err := hex.DecodeString(secretKeyHex)
	if err != nil {
		return "", fmt.Errorf("decoding secret key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("secret key must be a %d-byte seed, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return identity.DIDFromPublicKey(priv.Public().(ed25519.PublicKey)), nil
}
