package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

type ContactService struct {
	st  *store.Store
	log *slog.Logger
}

func NewContactService(st *store.Store, logger *slog.Logger) *ContactService {
	return &ContactService{st: st, log: logger}
}

// AddContact stores a new, active contact.
func (s *ContactService) AddContact(ctx context.Context, name, phone string) (*models.Contact, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}
	if err := required("phoneNumber", phone); err != nil {
		return nil, err
	}
	return store.Create(ctx, s.st, func(c *models.Contact) {
		c.Name = strings.TrimSpace(name)
		c.PhoneNumber = strings.TrimSpace(phone)
		c.IsActive = true
	})
}

// ListContacts returns contacts by name. With activeOnly set, inactive ones are skipped.
func (s *ContactService) ListContacts(ctx context.Context, activeOnly bool) ([]models.Contact, error) {
	q := store.Q{OrderBy: []store.Order{store.Asc("name"), store.Asc("id")}}
	if activeOnly {
		q.Where = []store.Filter{store.Eq("is_active", true)}
	}
	return store.Query[models.Contact](ctx, s.st, q)
}

func (s *ContactService) SetContactActive(ctx context.Context, id string, active bool) error {
	n, err := store.Update[models.Contact](ctx, s.st,
		[]store.Filter{store.Eq("id", id)}, map[string]any{"is_active": active})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: contact %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *ContactService) DeleteContact(ctx context.Context, id string) error {
	return store.Delete[models.Contact](ctx, s.st, id)
}
