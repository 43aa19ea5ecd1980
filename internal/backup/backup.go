// Package backup serializes the whole store to a versioned JSON document and restores it.
// Ids, insertion order and every field, including the opaque shot logs, survive the round
// trip unchanged.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Version is the document format written by Export and accepted by Import.
const Version = 1

// Document is the export format. Rounds carry their holes.
type Document struct {
	Version     int                 `json:"version"`
	ExportDate  time.Time           `json:"exportDate"`
	Rounds      []models.Round      `json:"rounds"`
	Tournaments []models.Tournament `json:"tournaments"`
	Contacts    []models.Contact    `json:"contacts"`
	Media       []models.Media      `json:"media"`
}

// Export reads every table. It holds the store's write lock while reading, so the document
// is a single consistent snapshot.
func Export(ctx context.Context, st *store.Store) (*Document, error) {
	doc := &Document{Version: Version, ExportDate: time.Now().UTC()}

	err := st.Exclusive(ctx, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rounds, err := store.Query[models.Round](ctx, st, store.Q{
				OrderBy: []store.Order{store.Desc("date"), store.Asc("seq")},
				Preload: []string{"Holes"},
			})
			for i := range rounds {
				sortHoles(rounds[i].Holes)
			}
			doc.Rounds = rounds
			return err
		})
		g.Go(func() error {
			var err error
			doc.Tournaments, err = store.Query[models.Tournament](ctx, st, store.Q{
				OrderBy: []store.Order{store.Desc("start_date"), store.Asc("seq")},
			})
			return err
		})
		g.Go(func() error {
			var err error
			doc.Contacts, err = store.Query[models.Contact](ctx, st, store.Q{
				OrderBy: []store.Order{store.Asc("name"), store.Asc("id")},
			})
			return err
		})
		g.Go(func() error {
			var err error
			doc.Media, err = store.Query[models.Media](ctx, st, store.Q{
				OrderBy: []store.Order{store.Asc("timestamp"), store.Asc("id")},
			})
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, fmt.Errorf("exporting: %w", err)
	}
	return doc, nil
}

func sortHoles(holes []models.Hole) {
	slices.SortFunc(holes, func(a, b models.Hole) int { return a.HoleNumber - b.HoleNumber })
}

// WriteTo writes d as indented JSON.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return 0, err
	}
	b = append(b, '\n')
	n, err := w.Write(b)
	return int64(n), err
}

// Read decodes a document and checks its version.
func Read(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: decoding backup: %w", store.ErrValidationFailed, err)
	}
	if err := d.check(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Document) check() error {
	if d.Version != Version {
		return fmt.Errorf("%w: unsupported backup version %d (want %d)", store.ErrValidationFailed, d.Version, Version)
	}
	for _, r := range d.Rounds {
		if len(r.Holes) != models.HolesPerRound {
			return fmt.Errorf("%w: round %s has %d holes", store.ErrIntegrityViolation, r.ID, len(r.Holes))
		}
	}
	return nil
}

// Import writes d into st in one transaction. Any id already present aborts the whole
// import with ErrIntegrityViolation and leaves st untouched.
func Import(ctx context.Context, st *store.Store, d *Document) error {
	if err := d.check(); err != nil {
		return err
	}

	return st.Transaction(ctx, func(ctx context.Context) error {
		if len(d.Tournaments) > 0 {
			if err := store.Insert(ctx, st, &d.Tournaments); err != nil {
				return fmt.Errorf("importing tournaments: %w", err)
			}
		}
		for i := range d.Rounds {
			r := d.Rounds[i]
			holes := r.Holes
			for j := range holes {
				holes[j].RoundID = r.ID
			}
			r.Holes = nil
			if err := store.Insert(ctx, st, &r); err != nil {
				return fmt.Errorf("importing round %s: %w", r.ID, err)
			}
			if err := store.Insert(ctx, st, &holes); err != nil {
				return fmt.Errorf("importing holes of round %s: %w", r.ID, err)
			}
			st.TouchHoles(ctx, r.ID)
		}
		if len(d.Contacts) > 0 {
			if err := store.Insert(ctx, st, &d.Contacts); err != nil {
				return fmt.Errorf("importing contacts: %w", err)
			}
		}
		if len(d.Media) > 0 {
			if err := store.Insert(ctx, st, &d.Media); err != nil {
				return fmt.Errorf("importing media: %w", err)
			}
		}
		return nil
	})
}
