// Package store provides the storage interface and implementations for the
// Synaptiq admin plane. The in-memory store serves local dev and tests;
// PostgreSQL-backed persistence is used in production.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// Store is the primary storage interface for the admin plane.
// All service and handler code depends on this interface, making it easy to
// swap between in-memory (tests) and PostgreSQL (production) implementations.
type Store interface {
	TenantStore
	NeurocoreStore
	AgentStore
	AgentTemplateStore
	ChannelStore
	ChannelProviderStore
	NicheStore
	PromptStore

	// Ping checks if the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}

// ── Pagination & sorting ────────────────────────────────────

// Page selects one page of a list result. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// DefaultPageSize matches the dashboard's table page size.
const DefaultPageSize = 10

// Normalize clamps the page to sane values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset is the 0-based row offset of the page start.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Sort orders a list result by one column.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort is newest-first, the dashboard default for every table.
var DefaultSort = Sort{Field: "created_at", Desc: true}

// ── Filters ─────────────────────────────────────────────────

// TenantFilter narrows tenant lists. Search matches name or CNPJ substrings,
// case-insensitive.
type TenantFilter struct {
	Search      string
	IsActive    *bool
	Plans       []models.TenantPlan
	NicheID     string
	NeurocoreID string
}

// NeurocoreFilter narrows neurocore lists. Search matches name or
// description substrings.
type NeurocoreFilter struct {
	Search   string
	IsActive *bool
}

// TemplateFilter narrows agent template lists. Search matches the name.
type TemplateFilter struct {
	Search   string
	Function models.AgentFunction
	IsActive *bool
}

// ── Entity stores ───────────────────────────────────────────

type TenantStore interface {
	// ListTenants returns one page of tenants with neurocore and niche
	// embeds, plus the total count matching the filter.
	ListTenants(ctx context.Context, filter TenantFilter, sort Sort, page Page) ([]models.Tenant, int, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error

	// TenantCNPJExists reports whether another tenant already uses the CNPJ.
	// excludeID skips the tenant being edited; empty means no exclusion.
	TenantCNPJExists(ctx context.Context, cnpj, excludeID string) (bool, error)

	// CountTenantsByNeurocore counts tenants assigned to a neurocore.
	// Used as the referential guard before neurocore deletion.
	CountTenantsByNeurocore(ctx context.Context, neurocoreID string) (int, error)

	// TenantStats aggregates the per-tenant row counts for the detail view.
	// Users, contacts and conversations live in platform-owned tables; a
	// store without access to them reports zero for those counters.
	TenantStats(ctx context.Context, tenantID string) (*models.TenantStats, error)
}

type NeurocoreStore interface {
	// ListNeurocores returns one page of neurocores with their agents
	// embedded and stats populated, plus the total count.
	ListNeurocores(ctx context.Context, filter NeurocoreFilter, sort Sort, page Page) ([]models.Neurocore, int, error)
	GetNeurocore(ctx context.Context, id string) (*models.Neurocore, error)
	CreateNeurocore(ctx context.Context, nc *models.Neurocore) error
	UpdateNeurocore(ctx context.Context, nc *models.Neurocore) error

	// DeleteNeurocore hard-deletes a neurocore. Owned agents cascade.
	// The tenant referential guard lives in the service layer.
	DeleteNeurocore(ctx context.Context, id string) error

	NeurocoreWorkflowIDExists(ctx context.Context, workflowID, excludeID string) (bool, error)
}

type AgentStore interface {
	ListAgentsByNeurocore(ctx context.Context, neurocoreID string) ([]models.Agent, error)
	CreateAgent(ctx context.Context, agent *models.Agent) error
	UpdateAgent(ctx context.Context, agent *models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
}

type AgentTemplateStore interface {
	ListTemplates(ctx context.Context, filter TemplateFilter, sort Sort, page Page) ([]models.AgentTemplate, int, error)
	GetTemplate(ctx context.Context, id string) (*models.AgentTemplate, error)
	ListActiveTemplates(ctx context.Context) ([]models.AgentTemplate, error)
	CreateTemplate(ctx context.Context, t *models.AgentTemplate) error
	UpdateTemplate(ctx context.Context, t *models.AgentTemplate) error
}

type ChannelStore interface {
	// ListChannelsByTenant returns all channels of a tenant with provider
	// embeds, newest first.
	ListChannelsByTenant(ctx context.Context, tenantID string) ([]models.Channel, error)
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	CreateChannel(ctx context.Context, ch *models.Channel) error
	UpdateChannel(ctx context.Context, ch *models.Channel) error
	DeleteChannel(ctx context.Context, id string) error

	// ChannelNumberExists reports whether the tenant already has a channel
	// with the identification number.
	ChannelNumberExists(ctx context.Context, tenantID, number, excludeID string) (bool, error)
}

type ChannelProviderStore interface {
	ListProviders(ctx context.Context) ([]models.ChannelProvider, error)
	GetProvider(ctx context.Context, id string) (*models.ChannelProvider, error)
}

type NicheStore interface {
	ListNiches(ctx context.Context) ([]models.Niche, error)
}

type PromptStore interface {
	// GetPrompt returns the tenant-scoped row for the category, or nil when
	// the tenant has no custom prompt. The fallback to the default row is
	// the service layer's job.
	GetPrompt(ctx context.Context, category models.PromptCategory, tenantID string) (*models.Prompt, error)

	// GetDefaultPrompt returns the platform default row (tenant IS NULL),
	// or nil when none exists.
	GetDefaultPrompt(ctx context.Context, category models.PromptCategory) (*models.Prompt, error)

	// UpsertPrompt updates the tenant-scoped row when one exists, inserts a
	// new tenant-scoped row otherwise. The default row is never touched.
	UpsertPrompt(ctx context.Context, category models.PromptCategory, tenantID string, content models.PromptContent) (*models.Prompt, error)
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// ErrConflict is returned when a uniqueness pre-check fails. No write is
// attempted after the check.
type ErrConflict struct {
	Entity string
	Field  string
	Value  string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// ErrInUse is returned when a delete is refused because other rows still
// reference the entity.
type ErrInUse struct {
	Entity string
	Key    string
	RefBy  string
	Count  int
}

func (e *ErrInUse) Error() string {
	return fmt.Sprintf("cannot delete %s %s: referenced by %d %s(s)", e.Entity, e.Key, e.Count, e.RefBy)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsConflict reports whether err is an ErrConflict.
func IsConflict(err error) bool {
	var c *ErrConflict
	return errors.As(err, &c)
}

// IsInUse reports whether err is an ErrInUse.
func IsInUse(err error) bool {
	var iu *ErrInUse
	return errors.As(err, &iu)
}
