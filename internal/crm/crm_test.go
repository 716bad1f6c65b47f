package crm_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/internal/config"
	"github.com/sadreammm/Helply/internal/crm"
	"github.com/sadreammm/Helply/internal/crm/hubspot"
	"github.com/sadreammm/Helply/internal/crm/memory"
	"github.com/sadreammm/Helply/internal/crm/sqlite"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		env     config.CRMEnv
		expType any
		expErr  bool
	}{
		"Mock store.": {
			env:     config.CRMEnv{Type: "mock"},
			expType: &memory.Store{},
		},
		"Unknown types fall back to mock.": {
			env:     config.CRMEnv{Type: "dynamics"},
			expType: &memory.Store{},
		},
		"SQLite store.": {
			env:     config.CRMEnv{Type: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "crm.db")},
			expType: &sqlite.Store{},
		},
		"HubSpot store.": {
			env:     config.CRMEnv{Type: "hubspot", HubSpotToken: "pat"},
			expType: &hubspot.Store{},
		},
		"HubSpot without token fails.": {
			env:    config.CRMEnv{Type: "hubspot"},
			expErr: true,
		},
		"REST without url fails.": {
			env:    config.CRMEnv{Type: "generic_rest"},
			expErr: true,
		},
		"Salesforce without credentials fails.": {
			env:    config.CRMEnv{Type: "salesforce"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			store, err := crm.New(context.Background(), test.env)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, test.expType, store)
		})
	}
}
