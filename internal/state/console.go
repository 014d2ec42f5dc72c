package state

import (
	"time"

	"github.com/synaptiq/synaptiq/admin-plane/internal/admin"
	"github.com/synaptiq/synaptiq/admin-plane/internal/notify"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// Console groups the containers behind the dashboard's paginated views.
type Console struct {
	Tenants    *Container[store.TenantFilter, models.Tenant]
	Neurocores *Container[store.NeurocoreFilter, models.Neurocore]
	Templates  *Container[store.TemplateFilter, models.AgentTemplate]
}

// NewConsole wires one container per paginated entity view.
func NewConsole(svc *admin.Service, hub *notify.Hub, debounce time.Duration) *Console {
	return &Console{
		Tenants: NewContainer("tenants", svc.ListTenants,
			func(f *store.TenantFilter, s string) { f.Search = s }, hub, debounce),
		Neurocores: NewContainer("neurocores", svc.ListNeurocores,
			func(f *store.NeurocoreFilter, s string) { f.Search = s }, hub, debounce),
		Templates: NewContainer("agent_templates", svc.ListTemplates,
			func(f *store.TemplateFilter, s string) { f.Search = s }, hub, debounce),
	}
}

// Shutdown stops all container goroutines.
func (c *Console) Shutdown() {
	c.Tenants.Shutdown()
	c.Neurocores.Shutdown()
	c.Templates.Shutdown()
}
