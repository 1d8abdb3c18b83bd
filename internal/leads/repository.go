package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows and pages lead listings.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// InMemoryRepository is an in-memory Repository used in tests and when no
// database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := leadFromRequest(uuid.New().String(), req, time.Now().UTC())

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}

	return lead, nil
}

// List returns leads newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	all := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		all = append(all, lead)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []*Lead{}, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func leadFromRequest(id string, req *CreateLeadRequest, createdAt time.Time) *Lead {
	return &Lead{
		ID:               id,
		Source:           SourceChatbot,
		Page:             req.Page,
		PersonaTipo:      req.PersonaTipo,
		Nombre:           req.Nombre,
		Telefono:         req.Telefono,
		Email:            req.Email,
		Municipio:        req.Municipio,
		Barrio:           req.Barrio,
		M2:               req.M2,
		Habitaciones:     req.Habitaciones,
		EstadoVivienda:   req.EstadoVivienda,
		FechaDisponible:  req.FechaDisponible,
		PresupuestoRenta: req.PresupuestoRenta,
		CanalPreferido:   req.CanalPreferido,
		FranjaHoraria:    req.FranjaHoraria,
		Comentarios:      req.Comentarios,
		UTMSource:        req.UTMSource,
		UTMMedium:        req.UTMMedium,
		UTMCampaign:      req.UTMCampaign,
		Consent:          req.Consent,
		Status:           StatusNew,
		CreatedAt:        createdAt,
	}
}
