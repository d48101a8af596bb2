package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"finknow/internal/config"
	"finknow/internal/tracker"
	"finknow/internal/vectorstore/qdrant"
)

func main() {
	cmd := &cli.Command{
		Name:  "finknowctl",
		Usage: "Administer the finknow vector store and ingestion tracker",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Compare documents in the vector store against the ingestion tracker",
				Action: runCheck,
			},
			{
				Name:  "reset",
				Usage: "Delete and recreate the vector collection and clear the tracker",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the destructive reset",
					},
				},
				Action: runReset,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err.Error())
	}
}

func runCheck(ctx context.Context, _ *cli.Command) error {
	store, tr, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	entries, err := tr.List(ctx)
	if err != nil {
		return err
	}

	tracked := make(map[string]tracker.Entry, len(entries))
	for _, e := range entries {
		tracked[e.DocID] = e
	}
	stored := make(map[string]struct{}, len(docs))

	fmt.Printf("documents in vector store: %d\n", len(docs))
	for _, d := range docs {
		stored[d.DocID] = struct{}{}
		if e, ok := tracked[d.DocID]; ok {
			fmt.Printf("  ok       %s  %s  (hash %s)\n", d.DocID, d.Filename, e.Hash)
		} else {
			fmt.Printf("  untracked %s  %s  (in store but not in tracker)\n", d.DocID, d.Filename)
		}
	}

	missing := 0
	for _, e := range entries {
		if _, ok := stored[e.DocID]; !ok {
			missing++
			fmt.Printf("  missing  %s  %s  (tracked but absent from store)\n", e.DocID, e.Filename)
		}
	}
	fmt.Printf("tracker entries: %d, missing from store: %d\n", len(entries), missing)
	return nil
}

func runReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("reset deletes all indexed data; re-run with --yes to confirm")
	}
	store, tr, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := config.Load()
	if err := store.Reset(ctx, cfg.EmbedDim); err != nil {
		return err
	}
	if err := tr.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("collection %q reset and tracker cleared\n", cfg.QdrantCollection)
	return nil
}

func open() (*qdrant.Store, *tracker.SQLite, func(), error) {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	store := qdrant.New(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	tr, err := tracker.NewSQLite(cfg.TrackerPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, tr, func() { _ = tr.Close() }, nil
}
