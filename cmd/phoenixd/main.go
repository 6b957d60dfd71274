// main.go - A small demo binary exercising the full Phoenix pipeline end to
// end: generate two keypairs, mint a note, spend it into a payment, a change
// note and a fee, prove the transaction, and verify it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/phoenix-protocol/phoenix/internal/phoenix"
)

func main() {
	configPath := flag.String("config", "phoenixd.json", "path to configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "phoenixd: load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "phoenixd: invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFile, cfg.AuditLogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "phoenixd: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("demo run failed: %v", err)
	}
}

func run(cfg *Config, logger *Logger) error {
	ctx := context.Background()

	logger.Info("compiling circuit and running trusted setup")
	if _, err := phoenix.Setup(cfg.ProvingKeyPath, cfg.VerifyingKeyPath); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	logger.Audit(EventSetupComplete, map[string]interface{}{
		"proving_key":   cfg.ProvingKeyPath,
		"verifying_key": cfg.VerifyingKeyPath,
	})

	alice := phoenix.NewSecretKey()
	bob := phoenix.NewSecretKey()
	alicePK := alice.PublicKey()
	bobPK := bob.PublicKey()

	storage := phoenix.NewMemoryNoteStorage()

	logger.Info("minting a funding note for alice")
	fundingNote, _ := phoenix.Output(phoenix.KindObfuscated, alicePK, 1000)
	idx, err := storage.StoreUnspent(ctx, fundingNote)
	if err != nil {
		return fmt.Errorf("store funding note: %w", err)
	}
	fundingNote.Idx = idx

	opening, err := storage.MerkleOpening(ctx, idx)
	if err != nil {
		return fmt.Errorf("merkle opening: %w", err)
	}

	input, err := phoenix.ToTransactionInput(fundingNote, alice, opening)
	if err != nil {
		return fmt.Errorf("bind input: %w", err)
	}

	logger.Info("building a payment to bob with change back to alice and a fee")
	payNote, payBlinding := phoenix.Output(phoenix.KindObfuscated, bobPK, 600)
	changeNote, changeBlinding := phoenix.Output(phoenix.KindObfuscated, alicePK, 390)
	feeNote, feeBlinding := phoenix.Output(phoenix.KindTransparent, alicePK, 10)

	tx := phoenix.NewTransaction()
	if err := tx.PushInput(input); err != nil {
		return fmt.Errorf("push input: %w", err)
	}
	if err := tx.PushOutput(phoenix.ToTransactionOutput(payNote, 600, payBlinding, bobPK)); err != nil {
		return fmt.Errorf("push output: %w", err)
	}
	if err := tx.PushOutput(phoenix.ToTransactionOutput(changeNote, 390, changeBlinding, alicePK)); err != nil {
		return fmt.Errorf("push change: %w", err)
	}
	tx.SetFee(phoenix.ToTransactionOutput(feeNote, 10, feeBlinding, alicePK))

	if err := tx.BalanceCheck(); err != nil {
		return fmt.Errorf("balance check: %w", err)
	}

	logger.Info("proving transaction")
	if err := phoenix.Prove(ctx, tx, storage); err != nil {
		return fmt.Errorf("prove: %w", err)
	}
	logger.Audit(EventTransactionProved, map[string]interface{}{
		"inputs":  len(tx.Inputs),
		"outputs": len(tx.Outputs),
	})

	logger.Info("verifying transaction")
	if err := phoenix.Verify(ctx, tx); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	for _, in := range tx.Inputs {
		seen, err := storage.NullifierSeen(ctx, in.Nullifier)
		if err != nil {
			return fmt.Errorf("check nullifier: %w", err)
		}
		if seen {
			return fmt.Errorf("double spend detected before first spend was recorded")
		}
		if err := storage.InsertNullifier(ctx, in.Nullifier); err != nil {
			return fmt.Errorf("insert nullifier: %w", err)
		}
		logger.Audit(EventNullifierRecorded, map[string]interface{}{
			"nullifier": in.Nullifier.String(),
		})
	}

	logger.Info("transaction proved and verified successfully")
	logger.Audit(EventTransactionVerified, map[string]interface{}{
		"inputs":  len(tx.Inputs),
		"outputs": len(tx.Outputs),
	})
	return nil
}
