// Package testutil holds in-memory implementations of the repository, storage and
// delivery interfaces for service and handler tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/customeros/mailgate/dto"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/repository"
	"github.com/customeros/mailgate/internal/utils"
)

type Store struct {
	mu       sync.Mutex
	tenants  []models.Tenant
	domains  []models.Domain
	routes   []models.Route
	messages []models.InboundMessage

	// CreateErr, when set, is returned by the message repository's Create.
	CreateErr error
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) AddTenant(t models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = append(s.tenants, t)
}

func (s *Store) AddDomain(d models.Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains = append(s.domains, d)
}

func (s *Store) AddRoute(r models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, r)
}

func (s *Store) AddMessage(m models.InboundMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *Store) Messages() []models.InboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.InboundMessage(nil), s.messages...)
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		TenantRepository:         &tenantRepository{s},
		DomainRepository:         &domainRepository{s},
		RouteRepository:          &routeRepository{s},
		InboundMessageRepository: &messageRepository{s},
	}
}

type tenantRepository struct{ s *Store }

func (r *tenantRepository) GetByID(_ context.Context, id uint64) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.ID == id {
			tenant := t
			return &tenant, nil
		}
	}
	return nil, nil
}

func (r *tenantRepository) GetByName(_ context.Context, name string) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Name == name {
			tenant := t
			return &tenant, nil
		}
	}
	return nil, nil
}

type domainRepository struct{ s *Store }

func (r *domainRepository) GetByName(_ context.Context, domain string) (*models.Domain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.domains {
		if strings.EqualFold(d.Domain, domain) {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (r *domainRepository) ListByTenant(_ context.Context, tenantID uint64) ([]models.Domain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Domain
	for _, d := range r.s.domains {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out, nil
}

type routeRepository struct{ s *Store }

func (r *routeRepository) ListByTenant(_ context.Context, tenantID uint64) ([]models.Route, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Route
	for _, route := range r.s.routes {
		if route.TenantID == tenantID {
			out = append(out, route)
		}
	}
	return out, nil
}

type messageRepository struct{ s *Store }

func (r *messageRepository) Create(_ context.Context, message *models.InboundMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.CreateErr != nil {
		return r.s.CreateErr
	}
	if message.ID == "" {
		message.ID = utils.GenerateNanoIDWithPrefix("msg", 20)
	}
	message.CreatedAt = utils.Now()
	r.s.messages = append(r.s.messages, *message)
	return nil
}

func (r *messageRepository) GetByID(_ context.Context, tenantID uint64, id string) (*models.InboundMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == id && m.TenantID == tenantID {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (r *messageRepository) ListByTenant(_ context.Context, tenantID uint64) ([]models.InboundMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.InboundMessage
	for _, m := range r.s.messages {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *messageRepository) ListReceivedSince(_ context.Context, since time.Time, limit int) ([]models.InboundMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.InboundMessage
	for _, m := range r.s.messages {
		if !m.ReceivedAt.Before(since) {
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Dispatcher records hand-offs. Err, when set, fails every dispatch.
type Dispatcher struct {
	mu       sync.Mutex
	handoffs []dto.Handoff
	Err      error
}

func (d *Dispatcher) Dispatch(_ context.Context, handoff dto.Handoff) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.handoffs = append(d.handoffs, handoff)
	return nil
}

func (d *Dispatcher) Close() error {
	return nil
}

func (d *Dispatcher) Handoffs() []dto.Handoff {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dto.Handoff(nil), d.handoffs...)
}

// FailingStorage wraps a backend and fails the operations whose error is set.
type FailingStorage struct {
	Backend     interfaces.StorageService
	UploadErr   error
	DownloadErr error
	ExistsErr   error
}

func (f *FailingStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.UploadErr != nil {
		return f.UploadErr
	}
	return f.Backend.Upload(ctx, key, data, contentType)
}

func (f *FailingStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	return f.Backend.Download(ctx, key)
}

func (f *FailingStorage) Delete(ctx context.Context, key string) error {
	return f.Backend.Delete(ctx, key)
}

func (f *FailingStorage) Exists(ctx context.Context, key string) (bool, error) {
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	return f.Backend.Exists(ctx, key)
}

var ErrInjected = errors.New("injected failure")
