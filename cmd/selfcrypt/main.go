// cmd/selfcrypt/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/FairForge/selfcrypt/internal/config"
	"github.com/FairForge/selfcrypt/internal/crypto"
	"github.com/FairForge/selfcrypt/internal/datamap"
	"github.com/FairForge/selfcrypt/internal/drivers"
	"github.com/FairForge/selfcrypt/internal/engine"
)

func main() {
	cfg := config.Default()
	if path := os.Getenv("SELFCRYPT_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "selfcrypt: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encrypt":
		err = runEncrypt(ctx, cfg, logger, os.Args[2:])
	case "decrypt":
		err = runDecrypt(ctx, cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  selfcrypt encrypt -in FILE -map FILE [-chunks DIR]
  selfcrypt decrypt -map FILE -out FILE [-chunks DIR] [-overwrite]`)
}

func newLogger(level string) *zap.Logger {
	var zcfg zap.Config
	if level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runEncrypt(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	in := fs.String("in", "", "file to encrypt")
	mapPath := fs.String("map", "", "where to write the data map")
	chunkDir := fs.String("chunks", cfg.ChunkDir, "chunk store directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *mapPath == "" {
		return fmt.Errorf("encrypt: -in and -map are required")
	}

	store, err := drivers.NewLocalStore(*chunkDir, logger)
	if err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	hint := crypto.IsCompressedExtension(*in)
	m, err := engine.NewEncryptor(store, cfg.Params, logger).EncryptReader(ctx, f, hint)
	if err != nil {
		return err
	}

	encoded, err := datamap.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*mapPath, encoded, 0640); err != nil {
		return fmt.Errorf("write data map: %w", err)
	}

	logger.Info("encrypted",
		zap.String("input", *in),
		zap.Uint64("bytes", m.Size),
		zap.Int("chunks", len(m.Chunks)),
		zap.String("map", *mapPath))
	return nil
}

func runDecrypt(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	mapPath := fs.String("map", "", "data map to decrypt")
	out := fs.String("out", "", "where to write the plaintext")
	chunkDir := fs.String("chunks", cfg.ChunkDir, "chunk store directory")
	overwrite := fs.Bool("overwrite", false, "replace the output file if it exists")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mapPath == "" || *out == "" {
		return fmt.Errorf("decrypt: -map and -out are required")
	}

	encoded, err := os.ReadFile(*mapPath)
	if err != nil {
		return fmt.Errorf("read data map: %w", err)
	}
	m, err := datamap.Unmarshal(encoded)
	if err != nil {
		return err
	}

	store, err := drivers.NewLocalStore(*chunkDir, logger)
	if err != nil {
		return err
	}

	if err := engine.NewDecryptor(store, logger).DecryptToFile(ctx, m, *out, *overwrite); err != nil {
		return err
	}

	logger.Info("decrypted",
		zap.String("map", *mapPath),
		zap.Uint64("bytes", m.Size),
		zap.String("output", *out))
	return nil
}
