// cmd/backup/main.go
// Backup CLI for the Daddy Caddy store.
//
//	backup export [file]   write the store as a JSON document (stdout when no file)
//	backup import <file>   restore a document into the configured database
//	backup upload          export and push the document to BACKUP_BUCKET
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charbodjc/daddy-caddy/internal/backup"
	"github.com/charbodjc/daddy-caddy/internal/config"
	"github.com/charbodjc/daddy-caddy/internal/database"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: backup export [file] | import <file> | upload")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	// Logs go to stderr so "export" can write the document to stdout.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	st := store.New(db)
	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		err = runExport(ctx, st, os.Args[2:])
	case "import":
		if len(os.Args) != 3 {
			usage()
		}
		err = runImport(ctx, st, os.Args[2], log)
	case "upload":
		err = runUpload(ctx, st, cfg.Backup, log)
	default:
		usage()
	}

	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	if err != nil {
		log.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, st *store.Store, args []string) error {
	doc, err := backup.Export(ctx, st)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err = doc.WriteTo(w)
	return err
}

func runImport(ctx context.Context, st *store.Store, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := backup.Read(f)
	if err != nil {
		return err
	}
	if err := backup.Import(ctx, st, doc); err != nil {
		return err
	}
	log.Info("backup imported", "file", path, "rounds", len(doc.Rounds), "tournaments", len(doc.Tournaments),
		"contacts", len(doc.Contacts), "media", len(doc.Media))
	return nil
}

func runUpload(ctx context.Context, st *store.Store, cfg config.BackupConfig, log *slog.Logger) error {
	uploader, err := backup.NewBucketUploader(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := backup.Export(ctx, st)
	if err != nil {
		return err
	}
	res, err := uploader.Upload(ctx, doc)
	if err != nil {
		return err
	}
	log.Info("backup uploaded", "bucket", res.Bucket, "key", res.Key, "etag", res.ETag)
	return nil
}
