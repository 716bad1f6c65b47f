// Package crm selects the task store implementation from configuration.
package crm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sadreammm/Helply/internal/config"
	"github.com/sadreammm/Helply/internal/crm/hubspot"
	"github.com/sadreammm/Helply/internal/crm/memory"
	"github.com/sadreammm/Helply/internal/crm/rest"
	"github.com/sadreammm/Helply/internal/crm/salesforce"
	"github.com/sadreammm/Helply/internal/crm/sqlite"
	"github.com/sadreammm/Helply/internal/interfaces"
)

// Supported store types
const (
	TypeMock       = "mock"
	TypeSQLite     = "sqlite"
	TypeREST       = "generic_rest"
	TypeHubSpot    = "hubspot"
	TypeSalesforce = "salesforce"
)

// New builds the task store named by env.Type. Unknown types fall back to
// the in-memory demo store.
func New(ctx context.Context, env config.CRMEnv) (interfaces.TaskStore, error) {
	switch strings.ToLower(env.Type) {
	case TypeMock, "memory", "":
		return memory.NewDemo(), nil
	case TypeSQLite:
		return sqlite.New(ctx, sqlite.Config{DBPath: env.DatabasePath, Seed: env.SeedDemo})
	case TypeREST, "rest":
		return rest.New(ctx, rest.Config{BaseURL: env.APIURL, APIKey: env.APIKey})
	case TypeHubSpot:
		return hubspot.New(ctx, hubspot.Config{AccessToken: env.HubSpotToken})
	case TypeSalesforce:
		return salesforce.New(salesforce.Config{
			Username:      env.SalesforceUsername,
			Password:      env.SalesforcePassword,
			SecurityToken: env.SalesforceSecurityToken,
			ClientID:      env.SalesforceClientID,
			ClientSecret:  env.SalesforceClientSecret,
			Domain:        env.SalesforceDomain,
		})
	default:
		slog.WarnContext(ctx, "unknown crm type, using mock store", "type", env.Type)
		return memory.NewDemo(), nil
	}
}

// Connect builds the store and connects it, closing it on failure.
func Connect(ctx context.Context, env config.CRMEnv) (interfaces.TaskStore, error) {
	store, err := New(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("could not create %s store: %w", env.Type, err)
	}
	if err := store.Connect(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("could not connect %s store: %w", env.Type, err)
	}
	return store, nil
}
