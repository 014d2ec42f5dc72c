// Package models defines the shared entity types for the Synaptiq admin plane.
// These map 1:1 to the platform's relational schema; the admin plane owns the
// tenant/neurocore/channel/template tables and reads the rest.
package models

import (
	"encoding/json"
	"time"
)

// ── Tenant ───────────────────────────────────────────────────

// TenantPlan is the commercial plan a tenant is subscribed to.
type TenantPlan string

const (
	PlanBasic      TenantPlan = "basic"
	PlanPro        TenantPlan = "pro"
	PlanEnterprise TenantPlan = "enterprise"
)

// Tenant is a customer organization using the platform. Tenants own users,
// contacts, conversations and channels; the admin plane manages their
// lifecycle and their neurocore assignment.
type Tenant struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CNPJ        string     `json:"cnpj"` // Brazilian tax ID, unique
	Phone       string     `json:"phone"`
	Plan        TenantPlan `json:"plan"`
	NeurocoreID string     `json:"neurocore_id"`
	NicheID     *string    `json:"niche_id,omitempty"`

	TechName        string `json:"responsible_tech_name"`
	TechWhatsApp    string `json:"responsible_tech_whatsapp"`
	TechEmail       string `json:"responsible_tech_email"`
	FinanceName     string `json:"responsible_finance_name"`
	FinanceWhatsApp string `json:"responsible_finance_whatsapp"`
	FinanceEmail    string `json:"responsible_finance_email"`

	IsActive                bool `json:"is_active"`
	MasterIntegrationActive bool `json:"master_integration_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Embedded relations, populated by list/get queries.
	Neurocore *NeurocoreRef `json:"neurocore,omitempty"`
	Niche     *NicheRef     `json:"niche,omitempty"`
}

// TenantStats carries the platform row counts shown on the tenant detail
// view. Users, contacts and conversations are owned by other services;
// the admin plane only counts them.
type TenantStats struct {
	TotalUsers         int `json:"total_users"`
	TotalContacts      int `json:"total_contacts"`
	TotalConversations int `json:"total_conversations"`
	TotalChannels      int `json:"total_channels"`
}

// NeurocoreRef is the slim neurocore embed carried on tenant rows.
type NeurocoreRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// NicheRef is the slim niche embed carried on tenant rows.
type NicheRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── Neurocore & Agent ────────────────────────────────────────

// Neurocore is a named AI-processing configuration. Each tenant is assigned
// to exactly one neurocore; a neurocore owns a set of agents.
type Neurocore struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// WorkflowID is the external workflow identifier backing this core.
	// Unique across neurocores.
	WorkflowID string    `json:"workflow_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Agents owned by this neurocore, embedded by list/get queries.
	Agents []Agent `json:"agents,omitempty"`

	// Stats populated by list queries for the dashboard.
	Stats *NeurocoreStats `json:"stats,omitempty"`
}

// NeurocoreStats carries the dashboard counters for one neurocore.
type NeurocoreStats struct {
	TotalAgents  int `json:"total_agents"`
	TotalTenants int `json:"total_tenants"`
}

// AgentFunction is the behavior slot an agent fills inside its neurocore.
type AgentFunction string

const (
	FunctionAttendant  AgentFunction = "attendant"
	FunctionIntention  AgentFunction = "intention"
	FunctionGuardRails AgentFunction = "guard_rails"
	FunctionObserver   AgentFunction = "observer"
)

// ValidAgentFunction reports whether f is one of the known agent functions.
func ValidAgentFunction(f AgentFunction) bool {
	switch f {
	case FunctionAttendant, FunctionIntention, FunctionGuardRails, FunctionObserver:
		return true
	}
	return false
}

// Agent is a single AI behavior unit belonging to exactly one neurocore.
// Agents are created, updated and deleted only through the neurocore edit
// workflow; there is no standalone agent surface.
type Agent struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Function    AgentFunction `json:"function"`
	Reactive    bool          `json:"reactive"` // responds when triggered; otherwise proactive
	NeurocoreID string        `json:"neurocore_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// AgentFields is the mutable subset of an agent, as collected by the
// neurocore edit form.
type AgentFields struct {
	Name     string        `json:"name"`
	Function AgentFunction `json:"function"`
	Reactive bool          `json:"reactive"`
}

// ── Agent Template ───────────────────────────────────────────

// GuidelineStep is one stage of a template's conversation guideline: a title
// plus an ordered list of instructions.
type GuidelineStep struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// AgentTemplate is a reusable, standalone agent configuration maintained by
// super admins, not yet bound to any neurocore.
type AgentTemplate struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Function AgentFunction `json:"function"`
	Reactive bool          `json:"reactive"`

	// Persona
	PersonaName   string `json:"persona_name,omitempty"`
	Age           string `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Objective     string `json:"objective,omitempty"`
	Communication string `json:"communication,omitempty"`
	Personality   string `json:"personality,omitempty"`

	// Behavior configuration. Limitations, instructions and the guideline
	// have a known shape; rules and other instructions stay schema-free.
	Limitations       []string        `json:"limitations,omitempty"`
	Instructions      []string        `json:"instructions,omitempty"`
	Guideline         []GuidelineStep `json:"guideline,omitempty"`
	Rules             json.RawMessage `json:"rules,omitempty"`
	OtherInstructions json.RawMessage `json:"other_instructions,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedBy *string   `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ── Channel ──────────────────────────────────────────────────

// DefaultWaitFragments is applied when a channel is created without an
// explicit fragment wait time.
const DefaultWaitFragments = 8

// Channel is a configured external messaging endpoint (e.g. a WhatsApp
// number) belonging to a tenant.
type Channel struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
	// Number is the endpoint's identification number (the WhatsApp number).
	// Unique within a tenant.
	Number       string `json:"identification_number"`
	InstanceName string `json:"instance_company_name"`

	IsActive     bool   `json:"is_active"`
	IsReceiving  bool   `json:"is_receiving_messages"`
	IsSending    bool   `json:"is_sending_messages"`
	Observations string `json:"observations,omitempty"`

	APIURL             string          `json:"external_api_url"`
	ProviderChannelID  string          `json:"provider_external_channel_id"`
	Config             json.RawMessage `json:"config,omitempty"`
	ClientDescriptions string          `json:"client_descriptions,omitempty"`

	// WaitFragments is how many seconds to collect message fragments before
	// the platform replies. 1..60, defaults to DefaultWaitFragments.
	WaitFragments int `json:"message_wait_time_fragments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Provider embed, populated by list/get queries.
	Provider *ProviderRef `json:"channel_provider,omitempty"`
}

// ProviderRef is the slim provider embed carried on channel rows.
type ProviderRef struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IdentifierCode string `json:"identifier_code"`
}

// ChannelProvider is a messaging API provider that channels are instantiated
// against. Read-only in the admin plane.
type ChannelProvider struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	IdentifierCode   string          `json:"identifier_code"`
	MasterWorkflowID string          `json:"master_workflow_id"`
	APIBaseConfig    json.RawMessage `json:"api_base_config,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Niche is a market niche tenants can be classified under. Read-only here.
type Niche struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ── Prompts ──────────────────────────────────────────────────

// PromptCategory selects one of the four per-tenant prompt tables.
type PromptCategory string

const (
	PromptGuardRails PromptCategory = "guard_rails"
	PromptObserver   PromptCategory = "observer"
	PromptIntention  PromptCategory = "intention"
	PromptSystem     PromptCategory = "system"
)

// PromptCategories lists all categories in display order.
var PromptCategories = []PromptCategory{
	PromptGuardRails, PromptObserver, PromptIntention, PromptSystem,
}

// ValidPromptCategory reports whether c names a known prompt category.
func ValidPromptCategory(c PromptCategory) bool {
	switch c {
	case PromptGuardRails, PromptObserver, PromptIntention, PromptSystem:
		return true
	}
	return false
}

// PromptContent is the text payload of one prompt row. Guard rails carries
// two prompts (jailbreak + NSFW); the other categories use Prompt only.
type PromptContent struct {
	Prompt          string `json:"prompt,omitempty"`
	PromptJailbreak string `json:"prompt_jailbreak,omitempty"`
	PromptNSFW      string `json:"prompt_nsfw,omitempty"`
}

// Prompt is one row of a prompt-category table. TenantID == nil marks the
// platform default row used as fallback for tenants without a custom prompt.
type Prompt struct {
	ID        int64          `json:"id"`
	Category  PromptCategory `json:"category"`
	TenantID  *string        `json:"tenant_id"`
	Content   PromptContent  `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsDefault reports whether the row is the platform default (no tenant).
func (p *Prompt) IsDefault() bool { return p.TenantID == nil }
