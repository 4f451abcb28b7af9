package adapter_test

import (
	"testing"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream"
)

func TestSQreamSelfRegistration(t *testing.T) {
	assert.True(t, adapter.IsRegistered("sqream"), "sqream adapter should be auto-registered")
	assert.True(t, adapter.IsRegistered("pysqream"), "pysqream alias should be auto-registered")
}

func TestListAdapters(t *testing.T) {
	adapters := adapter.ListAdapters()

	assert.Contains(t, adapters, "sqream", "sqream should be in adapter list")
	assert.Contains(t, adapters, "pysqream", "pysqream should be in adapter list")
}

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name        string
		adapterName string
		expected    bool
	}{
		{"sqream registered", "sqream", true},
		{"pysqream registered", "pysqream", true},
		{"unknown not registered", "unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.IsRegistered(tt.adapterName)
			assert.Equal(t, tt.expected, got, "IsRegistered(%q)", tt.adapterName)
		})
	}
}

func TestNewAdapter_Success(t *testing.T) {
	for _, name := range []string{"sqream", "pysqream"} {
		t.Run(name, func(t *testing.T) {
			adp, err := adapter.NewAdapter(adapter.Config{Type: name}, nil)
			require.NoError(t, err, "NewAdapter(%s) failed", name)
			require.NotNil(t, adp)
			assert.Equal(t, "sqream", adp.Dialect().Name)
		})
	}
}

func TestNewAdapter_UnknownType(t *testing.T) {
	_, err := adapter.NewAdapter(adapter.Config{Type: "unknown_adapter"}, nil)
	require.Error(t, err, "NewAdapter(unknown_adapter) should fail")

	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)

	assert.Equal(t, "unknown_adapter", unknownErr.Type, "error type")
	assert.Contains(t, unknownErr.Available, "sqream", "Available adapters should include sqream")
}
