package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nilnode/nildb/internal/config"
	"github.com/nilnode/nildb/internal/identity"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Print this node's identity without starting it",
	Long: `Derive this node's did:key identifier from its configured secret key
and print it alongside its advertised endpoint, without opening the
database or starting the HTTP server.`,
	RunE: runAbout,
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}

type aboutOutput struct {
	DID            identity.DID `json:"did"`
	PublicEndpoint string       `json:"publicEndpoint"`
	TrustAnchor    identity.DID `json:"trustAnchor"`
}

func runAbout(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	nodeDID, err := deriveNodeDID(cfg.Node.SecretKey)
	if err != nil {
		return fmt.Errorf("deriving node identity: %w", err)
	}

	trustAnchorDID, err := identity.ParseDID("did:key:" + cfg.TrustAnchor.PublicKey)
	if err != nil {
		return fmt.Errorf("parsing trust anchor did: %w", err)
	}

	out, err := json.MarshalIndent(aboutOutput{
		DID:            nodeDID,
		PublicEndpoint: cfg.Node.PublicEndpoint,
		TrustAnchor:    trustAnchorDID,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
