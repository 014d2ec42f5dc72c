// Package store — PostgreSQL Store implementation backed by pgx.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(ctx context.Context, connURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	log.Info().Msg("PostgreSQL store initialized")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the admin-plane tables when they don't exist. The rest of
// the platform schema (conversations, messages, ...) is owned elsewhere.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS niches (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS neurocores (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		workflow_id TEXT NOT NULL UNIQUE,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS agents (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL,
		function     TEXT NOT NULL,
		reactive     BOOLEAN NOT NULL DEFAULT TRUE,
		neurocore_id UUID NOT NULL REFERENCES neurocores(id) ON DELETE CASCADE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_agents_neurocore ON agents (neurocore_id);

	CREATE TABLE IF NOT EXISTS tenants (
		id                          UUID PRIMARY KEY,
		name                        TEXT NOT NULL,
		cnpj                        TEXT NOT NULL UNIQUE,
		phone                       TEXT NOT NULL DEFAULT '',
		plan                        TEXT NOT NULL DEFAULT 'basic',
		neurocore_id                UUID NOT NULL REFERENCES neurocores(id),
		niche_id                    UUID REFERENCES niches(id),
		responsible_tech_name       TEXT NOT NULL DEFAULT '',
		responsible_tech_whatsapp   TEXT NOT NULL DEFAULT '',
		responsible_tech_email      TEXT NOT NULL DEFAULT '',
		responsible_finance_name    TEXT NOT NULL DEFAULT '',
		responsible_finance_whatsapp TEXT NOT NULL DEFAULT '',
		responsible_finance_email   TEXT NOT NULL DEFAULT '',
		is_active                   BOOLEAN NOT NULL DEFAULT TRUE,
		master_integration_active   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_tenants_neurocore ON tenants (neurocore_id);

	CREATE TABLE IF NOT EXISTS agent_templates (
		id                 UUID PRIMARY KEY,
		name               TEXT NOT NULL,
		function           TEXT NOT NULL,
		reactive           BOOLEAN NOT NULL DEFAULT TRUE,
		persona_name       TEXT NOT NULL DEFAULT '',
		age                TEXT NOT NULL DEFAULT '',
		gender             TEXT NOT NULL DEFAULT '',
		objective          TEXT NOT NULL DEFAULT '',
		communication      TEXT NOT NULL DEFAULT '',
		personality        TEXT NOT NULL DEFAULT '',
		limitations        JSONB,
		instructions       JSONB,
		guideline          JSONB,
		rules              JSONB,
		other_instructions JSONB,
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		created_by         UUID,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS channel_providers (
		id                 UUID PRIMARY KEY,
		name               TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		identifier_code    TEXT NOT NULL,
		master_workflow_id TEXT NOT NULL DEFAULT '',
		api_base_config    JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS channels (
		id                           UUID PRIMARY KEY,
		tenant_id                    UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		provider_id                  UUID NOT NULL REFERENCES channel_providers(id),
		name                         TEXT NOT NULL,
		identification_number        TEXT NOT NULL,
		instance_company_name        TEXT NOT NULL DEFAULT '',
		is_active                    BOOLEAN NOT NULL DEFAULT TRUE,
		is_receiving_messages        BOOLEAN NOT NULL DEFAULT TRUE,
		is_sending_messages          BOOLEAN NOT NULL DEFAULT TRUE,
		observations                 TEXT NOT NULL DEFAULT '',
		external_api_url             TEXT NOT NULL DEFAULT '',
		provider_external_channel_id TEXT NOT NULL DEFAULT '',
		config                       JSONB,
		client_descriptions          TEXT NOT NULL DEFAULT '',
		message_wait_time_fragments  INT NOT NULL DEFAULT 8,
		created_at                   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tenant_id, identification_number)
	);
	CREATE INDEX IF NOT EXISTS idx_channels_tenant ON channels (tenant_id);
	`
	for _, cat := range models.PromptCategories {
		extra := "prompt TEXT NOT NULL DEFAULT ''"
		if cat == models.PromptGuardRails {
			extra = "prompt_jailbreak TEXT NOT NULL DEFAULT '', prompt_nsfw TEXT NOT NULL DEFAULT ''"
		}
		ddl += fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		tenant_id  UUID REFERENCES tenants(id) ON DELETE CASCADE,
		%s,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_tenant ON %s (tenant_id) WHERE tenant_id IS NOT NULL;
	`, promptTable(cat), extra, promptTable(cat), promptTable(cat))
	}

	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// sortClause renders an ORDER BY from a whitelisted sort field. Unknown
// fields fall back to created_at.
func sortClause(s Sort) string {
	field := "created_at"
	switch s.Field {
	case "name", "updated_at", "created_at":
		field = s.Field
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", field, dir)
}

// ── Tenant Store ────────────────────────────────────────────

const tenantCols = `t.id, t.name, t.cnpj, t.phone, t.plan, t.neurocore_id, t.niche_id,
	t.responsible_tech_name, t.responsible_tech_whatsapp, t.responsible_tech_email,
	t.responsible_finance_name, t.responsible_finance_whatsapp, t.responsible_finance_email,
	t.is_active, t.master_integration_active, t.created_at, t.updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	var ncID, ncName *string
	var ncActive *bool
	var nicheName *string
	err := row.Scan(
		&t.ID, &t.Name, &t.CNPJ, &t.Phone, &t.Plan, &t.NeurocoreID, &t.NicheID,
		&t.TechName, &t.TechWhatsApp, &t.TechEmail,
		&t.FinanceName, &t.FinanceWhatsApp, &t.FinanceEmail,
		&t.IsActive, &t.MasterIntegrationActive, &t.CreatedAt, &t.UpdatedAt,
		&ncID, &ncName, &ncActive, &nicheName,
	)
	if err != nil {
		return nil, err
	}
	if ncID != nil {
		t.Neurocore = &models.NeurocoreRef{ID: *ncID, Name: *ncName, IsActive: *ncActive}
	}
	if t.NicheID != nil && nicheName != nil {
		t.Niche = &models.NicheRef{ID: *t.NicheID, Name: *nicheName}
	}
	return &t, nil
}

// tenantWhere builds the WHERE clause + args for a tenant filter.
func tenantWhere(filter TenantFilter) (string, []any) {
	var conds []string
	var args []any
	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.Search != "" {
		p := next()
		conds = append(conds, fmt.Sprintf("(t.name ILIKE %s OR t.cnpj ILIKE %s)", p, p))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("t.is_active = %s", next()))
		args = append(args, *filter.IsActive)
	}
	if len(filter.Plans) > 0 {
		conds = append(conds, fmt.Sprintf("t.plan = ANY(%s)", next()))
		plans := make([]string, len(filter.Plans))
		for i, p := range filter.Plans {
			plans[i] = string(p)
		}
		args = append(args, plans)
	}
	if filter.NicheID != "" {
		conds = append(conds, fmt.Sprintf("t.niche_id = %s", next()))
		args = append(args, filter.NicheID)
	}
	if filter.NeurocoreID != "" {
		conds = append(conds, fmt.Sprintf("t.neurocore_id = %s", next()))
		args = append(args, filter.NeurocoreID)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) ListTenants(ctx context.Context, filter TenantFilter, srt Sort, page Page) ([]models.Tenant, int, error) {
	where, args := tenantWhere(filter)

	var total int
	countSQL := "SELECT COUNT(*) FROM tenants t " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	page = page.Normalize()
	listSQL := fmt.Sprintf(`SELECT %s, nc.id, nc.name, nc.is_active, n.name
		FROM tenants t
		LEFT JOIN neurocores nc ON nc.id = t.neurocore_id
		LEFT JOIN niches n ON n.id = t.niche_id
		%s %s LIMIT %d OFFSET %d`,
		tenantCols, where, strings.Replace(sortClause(srt), "ORDER BY ", "ORDER BY t.", 1), page.Size, page.Offset())

	rows, err := s.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]models.Tenant, 0, page.Size)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, total, rows.Err()
}

func (s *PostgresStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	sql := fmt.Sprintf(`SELECT %s, nc.id, nc.name, nc.is_active, n.name
		FROM tenants t
		LEFT JOIN neurocores nc ON nc.id = t.neurocore_id
		LEFT JOIN niches n ON n.id = t.niche_id
		WHERE t.id = $1`, tenantCols)
	t, err := scanTenant(s.pool.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "tenant", Key: id}
	}
	return t, err
}

func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO tenants (
			id, name, cnpj, phone, plan, neurocore_id, niche_id,
			responsible_tech_name, responsible_tech_whatsapp, responsible_tech_email,
			responsible_finance_name, responsible_finance_whatsapp, responsible_finance_email,
			is_active, master_integration_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		t.ID, t.Name, t.CNPJ, t.Phone, t.Plan, t.NeurocoreID, t.NicheID,
		t.TechName, t.TechWhatsApp, t.TechEmail,
		t.FinanceName, t.FinanceWhatsApp, t.FinanceEmail,
		t.IsActive, t.MasterIntegrationActive, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *PostgresStore) UpdateTenant(ctx context.Context, t *models.Tenant) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `UPDATE tenants SET
			name=$2, cnpj=$3, phone=$4, plan=$5, neurocore_id=$6, niche_id=$7,
			responsible_tech_name=$8, responsible_tech_whatsapp=$9, responsible_tech_email=$10,
			responsible_finance_name=$11, responsible_finance_whatsapp=$12, responsible_finance_email=$13,
			is_active=$14, master_integration_active=$15, updated_at=$16
		WHERE id=$1`,
		t.ID, t.Name, t.CNPJ, t.Phone, t.Plan, t.NeurocoreID, t.NicheID,
		t.TechName, t.TechWhatsApp, t.TechEmail,
		t.FinanceName, t.FinanceWhatsApp, t.FinanceEmail,
		t.IsActive, t.MasterIntegrationActive, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "tenant", Key: t.ID}
	}
	return nil
}

func (s *PostgresStore) TenantCNPJExists(ctx context.Context, cnpj, excludeID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE cnpj = $1 AND id::text <> $2)`,
		cnpj, excludeID).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) CountTenantsByNeurocore(ctx context.Context, neurocoreID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tenants WHERE neurocore_id = $1`, neurocoreID).Scan(&count)
	return count, err
}

// TenantStats counts the tenant's rows across the platform tables. Users,
// contacts and conversations are owned by other services; when their tables
// are absent (a standalone admin database) those counters stay zero.
func (s *PostgresStore) TenantStats(ctx context.Context, tenantID string) (*models.TenantStats, error) {
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	stats := &models.TenantStats{}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM channels WHERE tenant_id = $1`, tenantID).Scan(&stats.TotalChannels)
	if err != nil {
		return nil, err
	}

	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"users", &stats.TotalUsers},
		{"contacts", &stats.TotalContacts},
		{"conversations", &stats.TotalConversations},
	} {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT to_regclass($1) IS NOT NULL`, c.table).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		sql := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tenant_id = $1`, c.table)
		if err := s.pool.QueryRow(ctx, sql, tenantID).Scan(c.dst); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// ── Neurocore Store ─────────────────────────────────────────

func neurocoreWhere(filter NeurocoreFilter) (string, []any) {
	var conds []string
	var args []any
	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.Search != "" {
		p := next()
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = %s", next()))
		args = append(args, *filter.IsActive)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) ListNeurocores(ctx context.Context, filter NeurocoreFilter, srt Sort, page Page) ([]models.Neurocore, int, error) {
	where, args := neurocoreWhere(filter)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM neurocores "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count neurocores: %w", err)
	}

	page = page.Normalize()
	sql := fmt.Sprintf(`SELECT id, name, description, workflow_id, is_active, created_at, updated_at,
			(SELECT COUNT(*) FROM tenants WHERE tenants.neurocore_id = neurocores.id)
		FROM neurocores %s %s LIMIT %d OFFSET %d`,
		where, sortClause(srt), page.Size, page.Offset())

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list neurocores: %w", err)
	}
	defer rows.Close()

	cores := make([]models.Neurocore, 0, page.Size)
	for rows.Next() {
		var nc models.Neurocore
		var tenantCount int
		if err := rows.Scan(&nc.ID, &nc.Name, &nc.Description, &nc.WorkflowID, &nc.IsActive,
			&nc.CreatedAt, &nc.UpdatedAt, &tenantCount); err != nil {
			return nil, 0, fmt.Errorf("scan neurocore: %w", err)
		}
		nc.Stats = &models.NeurocoreStats{TotalTenants: tenantCount}
		cores = append(cores, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Embed agents per core. One query per page row keeps the SQL simple;
	// page sizes are small (dashboard tables).
	for i := range cores {
		agents, err := s.ListAgentsByNeurocore(ctx, cores[i].ID)
		if err != nil {
			return nil, 0, err
		}
		cores[i].Agents = agents
		cores[i].Stats.TotalAgents = len(agents)
	}
	return cores, total, nil
}

func (s *PostgresStore) GetNeurocore(ctx context.Context, id string) (*models.Neurocore, error) {
	var nc models.Neurocore
	var tenantCount int
	err := s.pool.QueryRow(ctx, `SELECT id, name, description, workflow_id, is_active, created_at, updated_at,
			(SELECT COUNT(*) FROM tenants WHERE tenants.neurocore_id = neurocores.id)
		FROM neurocores WHERE id = $1`, id).
		Scan(&nc.ID, &nc.Name, &nc.Description, &nc.WorkflowID, &nc.IsActive, &nc.CreatedAt, &nc.UpdatedAt, &tenantCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "neurocore", Key: id}
	}
	if err != nil {
		return nil, err
	}
	agents, err := s.ListAgentsByNeurocore(ctx, id)
	if err != nil {
		return nil, err
	}
	nc.Agents = agents
	nc.Stats = &models.NeurocoreStats{TotalAgents: len(agents), TotalTenants: tenantCount}
	return &nc, nil
}

func (s *PostgresStore) CreateNeurocore(ctx context.Context, nc *models.Neurocore) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO neurocores (id, name, description, workflow_id, is_active, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		nc.ID, nc.Name, nc.Description, nc.WorkflowID, nc.IsActive, nc.CreatedAt, nc.UpdatedAt)
	return err
}

func (s *PostgresStore) UpdateNeurocore(ctx context.Context, nc *models.Neurocore) error {
	nc.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE neurocores SET name=$2, description=$3, workflow_id=$4, is_active=$5, updated_at=$6 WHERE id=$1`,
		nc.ID, nc.Name, nc.Description, nc.WorkflowID, nc.IsActive, nc.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "neurocore", Key: nc.ID}
	}
	return nil
}

func (s *PostgresStore) DeleteNeurocore(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM neurocores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "neurocore", Key: id}
	}
	return nil
}

func (s *PostgresStore) NeurocoreWorkflowIDExists(ctx context.Context, workflowID, excludeID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM neurocores WHERE workflow_id = $1 AND id::text <> $2)`,
		workflowID, excludeID).Scan(&exists)
	return exists, err
}

// ── Agent Store ─────────────────────────────────────────────

func (s *PostgresStore) ListAgentsByNeurocore(ctx context.Context, neurocoreID string) ([]models.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, function, reactive, neurocore_id, created_at, updated_at
		 FROM agents WHERE neurocore_id = $1 ORDER BY created_at ASC`, neurocoreID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]models.Agent, 0)
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Function, &a.Reactive, &a.NeurocoreID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *PostgresStore) CreateAgent(ctx context.Context, a *models.Agent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (id, name, function, reactive, neurocore_id, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Name, a.Function, a.Reactive, a.NeurocoreID, a.CreatedAt, a.UpdatedAt)
	return err
}

func (s *PostgresStore) UpdateAgent(ctx context.Context, a *models.Agent) error {
	a.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET name=$2, function=$3, reactive=$4, updated_at=$5 WHERE id=$1`,
		a.ID, a.Name, a.Function, a.Reactive, a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "agent", Key: a.ID}
	}
	return nil
}

func (s *PostgresStore) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "agent", Key: id}
	}
	return nil
}

// ── Agent Template Store ────────────────────────────────────

const templateCols = `id, name, function, reactive, persona_name, age, gender, objective,
	communication, personality, limitations, instructions, guideline, rules,
	other_instructions, is_active, created_by, created_at, updated_at`

func scanTemplate(row pgx.Row) (*models.AgentTemplate, error) {
	var t models.AgentTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Function, &t.Reactive, &t.PersonaName, &t.Age, &t.Gender,
		&t.Objective, &t.Communication, &t.Personality, &t.Limitations, &t.Instructions,
		&t.Guideline, &t.Rules, &t.OtherInstructions, &t.IsActive, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func templateWhere(filter TemplateFilter) (string, []any) {
	var conds []string
	var args []any
	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.Search != "" {
		conds = append(conds, fmt.Sprintf("name ILIKE %s", next()))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Function != "" {
		conds = append(conds, fmt.Sprintf("function = %s", next()))
		args = append(args, string(filter.Function))
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = %s", next()))
		args = append(args, *filter.IsActive)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) ListTemplates(ctx context.Context, filter TemplateFilter, srt Sort, page Page) ([]models.AgentTemplate, int, error) {
	where, args := templateWhere(filter)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM agent_templates "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}

	page = page.Normalize()
	sql := fmt.Sprintf("SELECT %s FROM agent_templates %s %s LIMIT %d OFFSET %d",
		templateCols, where, sortClause(srt), page.Size, page.Offset())
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]models.AgentTemplate, 0, page.Size)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, total, rows.Err()
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*models.AgentTemplate, error) {
	t, err := scanTemplate(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM agent_templates WHERE id = $1", templateCols), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "agent template", Key: id}
	}
	return t, err
}

func (s *PostgresStore) ListActiveTemplates(ctx context.Context) ([]models.AgentTemplate, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM agent_templates WHERE is_active ORDER BY name ASC", templateCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]models.AgentTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *PostgresStore) CreateTemplate(ctx context.Context, t *models.AgentTemplate) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO agent_templates (
			id, name, function, reactive, persona_name, age, gender, objective,
			communication, personality, limitations, instructions, guideline, rules,
			other_instructions, is_active, created_by, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		t.ID, t.Name, t.Function, t.Reactive, t.PersonaName, t.Age, t.Gender, t.Objective,
		t.Communication, t.Personality, t.Limitations, t.Instructions, t.Guideline, t.Rules,
		t.OtherInstructions, t.IsActive, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *PostgresStore) UpdateTemplate(ctx context.Context, t *models.AgentTemplate) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `UPDATE agent_templates SET
			name=$2, function=$3, reactive=$4, persona_name=$5, age=$6, gender=$7,
			objective=$8, communication=$9, personality=$10, limitations=$11,
			instructions=$12, guideline=$13, rules=$14, other_instructions=$15,
			is_active=$16, updated_at=$17
		WHERE id=$1`,
		t.ID, t.Name, t.Function, t.Reactive, t.PersonaName, t.Age, t.Gender,
		t.Objective, t.Communication, t.Personality, t.Limitations,
		t.Instructions, t.Guideline, t.Rules, t.OtherInstructions,
		t.IsActive, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "agent template", Key: t.ID}
	}
	return nil
}

// ── Channel Store ───────────────────────────────────────────

const channelCols = `c.id, c.tenant_id, c.provider_id, c.name, c.identification_number,
	c.instance_company_name, c.is_active, c.is_receiving_messages, c.is_sending_messages,
	c.observations, c.external_api_url, c.provider_external_channel_id, c.config,
	c.client_descriptions, c.message_wait_time_fragments, c.created_at, c.updated_at`

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var c models.Channel
	var pID, pName, pCode *string
	err := row.Scan(&c.ID, &c.TenantID, &c.ProviderID, &c.Name, &c.Number,
		&c.InstanceName, &c.IsActive, &c.IsReceiving, &c.IsSending,
		&c.Observations, &c.APIURL, &c.ProviderChannelID, &c.Config,
		&c.ClientDescriptions, &c.WaitFragments, &c.CreatedAt, &c.UpdatedAt,
		&pID, &pName, &pCode)
	if err != nil {
		return nil, err
	}
	if pID != nil {
		c.Provider = &models.ProviderRef{ID: *pID, Name: *pName, IdentifierCode: *pCode}
	}
	return &c, nil
}

func (s *PostgresStore) ListChannelsByTenant(ctx context.Context, tenantID string) ([]models.Channel, error) {
	sql := fmt.Sprintf(`SELECT %s, p.id, p.name, p.identifier_code
		FROM channels c
		LEFT JOIN channel_providers p ON p.id = c.provider_id
		WHERE c.tenant_id = $1 ORDER BY c.created_at DESC`, channelCols)
	rows, err := s.pool.Query(ctx, sql, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, *c)
	}
	return channels, rows.Err()
}

func (s *PostgresStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	sql := fmt.Sprintf(`SELECT %s, p.id, p.name, p.identifier_code
		FROM channels c
		LEFT JOIN channel_providers p ON p.id = c.provider_id
		WHERE c.id = $1`, channelCols)
	c, err := scanChannel(s.pool.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "channel", Key: id}
	}
	return c, err
}

func (s *PostgresStore) CreateChannel(ctx context.Context, c *models.Channel) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO channels (
			id, tenant_id, provider_id, name, identification_number, instance_company_name,
			is_active, is_receiving_messages, is_sending_messages, observations,
			external_api_url, provider_external_channel_id, config, client_descriptions,
			message_wait_time_fragments, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		c.ID, c.TenantID, c.ProviderID, c.Name, c.Number, c.InstanceName,
		c.IsActive, c.IsReceiving, c.IsSending, c.Observations,
		c.APIURL, c.ProviderChannelID, c.Config, c.ClientDescriptions,
		c.WaitFragments, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *PostgresStore) UpdateChannel(ctx context.Context, c *models.Channel) error {
	c.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `UPDATE channels SET
			provider_id=$2, name=$3, identification_number=$4, instance_company_name=$5,
			is_active=$6, is_receiving_messages=$7, is_sending_messages=$8, observations=$9,
			external_api_url=$10, provider_external_channel_id=$11, config=$12,
			client_descriptions=$13, message_wait_time_fragments=$14, updated_at=$15
		WHERE id=$1`,
		c.ID, c.ProviderID, c.Name, c.Number, c.InstanceName,
		c.IsActive, c.IsReceiving, c.IsSending, c.Observations,
		c.APIURL, c.ProviderChannelID, c.Config,
		c.ClientDescriptions, c.WaitFragments, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "channel", Key: c.ID}
	}
	return nil
}

func (s *PostgresStore) DeleteChannel(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "channel", Key: id}
	}
	return nil
}

func (s *PostgresStore) ChannelNumberExists(ctx context.Context, tenantID, number, excludeID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM channels WHERE tenant_id = $1 AND identification_number = $2 AND id::text <> $3)`,
		tenantID, number, excludeID).Scan(&exists)
	return exists, err
}

// ── Channel Provider & Niche Stores ─────────────────────────

func (s *PostgresStore) ListProviders(ctx context.Context) ([]models.ChannelProvider, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, identifier_code, master_workflow_id, api_base_config, created_at, updated_at
		 FROM channel_providers ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	providers := make([]models.ChannelProvider, 0)
	for rows.Next() {
		var p models.ChannelProvider
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.IdentifierCode,
			&p.MasterWorkflowID, &p.APIBaseConfig, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (s *PostgresStore) GetProvider(ctx context.Context, id string) (*models.ChannelProvider, error) {
	var p models.ChannelProvider
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, identifier_code, master_workflow_id, api_base_config, created_at, updated_at
		 FROM channel_providers WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.IdentifierCode,
			&p.MasterWorkflowID, &p.APIBaseConfig, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "channel provider", Key: id}
	}
	return &p, err
}

func (s *PostgresStore) ListNiches(ctx context.Context) ([]models.Niche, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM niches ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	niches := make([]models.Niche, 0)
	for rows.Next() {
		var n models.Niche
		if err := rows.Scan(&n.ID, &n.Name, &n.Description, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		niches = append(niches, n)
	}
	return niches, rows.Err()
}

// ── Prompt Store ────────────────────────────────────────────

// promptTable maps a category to its table. Each category has its own table,
// mirroring the platform schema.
func promptTable(c models.PromptCategory) string {
	return "agent_prompts_" + string(c)
}

func promptCols(c models.PromptCategory) string {
	if c == models.PromptGuardRails {
		return "id, tenant_id, prompt_jailbreak, prompt_nsfw, created_at, updated_at"
	}
	return "id, tenant_id, prompt, created_at, updated_at"
}

func scanPrompt(row pgx.Row, c models.PromptCategory) (*models.Prompt, error) {
	p := models.Prompt{Category: c}
	var err error
	if c == models.PromptGuardRails {
		err = row.Scan(&p.ID, &p.TenantID, &p.Content.PromptJailbreak, &p.Content.PromptNSFW, &p.CreatedAt, &p.UpdatedAt)
	} else {
		err = row.Scan(&p.ID, &p.TenantID, &p.Content.Prompt, &p.CreatedAt, &p.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetPrompt(ctx context.Context, c models.PromptCategory, tenantID string) (*models.Prompt, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = $1", promptCols(c), promptTable(c))
	p, err := scanPrompt(s.pool.QueryRow(ctx, sql, tenantID), c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *PostgresStore) GetDefaultPrompt(ctx context.Context, c models.PromptCategory) (*models.Prompt, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id IS NULL", promptCols(c), promptTable(c))
	p, err := scanPrompt(s.pool.QueryRow(ctx, sql), c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *PostgresStore) UpsertPrompt(ctx context.Context, c models.PromptCategory, tenantID string, content models.PromptContent) (*models.Prompt, error) {
	table := promptTable(c)
	var sql string
	var args []any
	if c == models.PromptGuardRails {
		sql = fmt.Sprintf(`INSERT INTO %s (tenant_id, prompt_jailbreak, prompt_nsfw)
			VALUES ($1, $2, $3)
			ON CONFLICT (tenant_id) WHERE tenant_id IS NOT NULL
			DO UPDATE SET prompt_jailbreak = EXCLUDED.prompt_jailbreak,
				prompt_nsfw = EXCLUDED.prompt_nsfw, updated_at = NOW()
			RETURNING %s`, table, promptCols(c))
		args = []any{tenantID, content.PromptJailbreak, content.PromptNSFW}
	} else {
		sql = fmt.Sprintf(`INSERT INTO %s (tenant_id, prompt)
			VALUES ($1, $2)
			ON CONFLICT (tenant_id) WHERE tenant_id IS NOT NULL
			DO UPDATE SET prompt = EXCLUDED.prompt, updated_at = NOW()
			RETURNING %s`, table, promptCols(c))
		args = []any{tenantID, content.Prompt}
	}
	return scanPrompt(s.pool.QueryRow(ctx, sql, args...), c)
}
