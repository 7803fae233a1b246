package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	flag "github.com/spf13/pflag"

	"github.com/sparklabs/ideavault/api/config"
	"github.com/sparklabs/ideavault/api/handlers"
	"github.com/sparklabs/ideavault/api/vault"
	"github.com/sparklabs/ideavault/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// Commands
	pgMigrateFlag := flag.Bool("pg-migrate", false, "Run PostgreSQL database migrations using goose")
	pgMigrateStatusFlag := flag.Bool("pg-migrate-status", false, "Show PostgreSQL database migration status")
	deriveFlag := flag.String("derive", "", "Derive and print the vault address for an idea id")
	genKeyFlag := flag.Bool("gen-key", false, "Generate an ed25519 keypair for signing requests")
	signFlag := flag.String("sign", "", "Sign an action message with the key in SIGNER_KEY (base64 ed25519 seed)")
	nonceFlag := flag.String("nonce", "", "Nonce to embed in the signed message (use with --sign)")
	fieldFlag := flag.StringArray("field", nil, "Additional key:value binding field for the signed message (repeatable, use with --sign)")

	flag.Parse()

	log := logger.New(*verboseFlag)

	if *pgMigrateFlag || *pgMigrateStatusFlag {
		cfg, err := config.PgConfigFromEnv()
		if err != nil {
			return err
		}
		if *pgMigrateFlag {
			return config.RunMigrations(log, cfg.ConnStr())
		}
		return config.MigrationStatus(log, cfg.ConnStr())
	}

	if *deriveFlag != "" {
		seed := vault.DeriveSeed(*deriveFlag)
		fmt.Printf("idea_id:       %s\n", *deriveFlag)
		fmt.Printf("vault_seed:    %s\n", seed.Hex())
		fmt.Printf("vault_address: %s\n", vault.VaultAddress(seed))
		return nil
	}

	if *genKeyFlag {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return fmt.Errorf("failed to generate keypair: %w", err)
		}
		fmt.Printf("public_key:  %s\n", base58.Encode(pub))
		fmt.Printf("signer_key:  %s\n", base64.StdEncoding.EncodeToString(priv.Seed()))
		return nil
	}

	if *signFlag != "" {
		keyB64 := os.Getenv("SIGNER_KEY")
		if keyB64 == "" {
			return fmt.Errorf("SIGNER_KEY is required for --sign")
		}
		seed, err := base64.StdEncoding.DecodeString(keyB64)
		if err != nil {
			return fmt.Errorf("failed to decode SIGNER_KEY: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return fmt.Errorf("SIGNER_KEY must be a %d-byte ed25519 seed", ed25519.SeedSize)
		}
		if *nonceFlag == "" {
			return fmt.Errorf("--nonce is required for --sign")
		}

		priv := ed25519.NewKeyFromSeed(seed)
		msg := handlers.BuildAuthMessage(*signFlag, *nonceFlag, *fieldFlag...)
		sig := ed25519.Sign(priv, []byte(msg))

		fmt.Printf("signer:    %s\n", base58.Encode(priv.Public().(ed25519.PublicKey)))
		fmt.Printf("message:   %q\n", msg)
		fmt.Printf("signature: %s\n", base64.StdEncoding.EncodeToString(sig))
		return nil
	}

	flag.Usage()
	return nil
}
