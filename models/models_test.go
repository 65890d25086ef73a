package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Columns filled from request input or upstream sources must not carry a
// length limit, or postgres rejects the whole insert.
func TestExternallyControlledColumnsAreUnbounded(t *testing.T) {
	tests := []struct {
		model  interface{}
		fields []string
	}{
		{&Click{}, []string{"Source", "IP", "UserAgent", "Referrer"}},
		{&EmailCapture{}, []string{"Email"}},
		{&Video{}, []string{"Title", "URL", "Thumbnail", "LastError"}},
	}

	cache := &sync.Map{}
	for _, tt := range tests {
		s, err := schema.Parse(tt.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		for _, name := range tt.fields {
			f := s.LookUpField(name)
			require.NotNil(t, f, "%s.%s", s.Name, name)
			assert.Zero(t, f.Size, "%s.%s", s.Name, name)
			assert.Equal(t, schema.DataType("text"), f.DataType, "%s.%s", s.Name, name)
		}
	}
}

func TestAllRegistersEveryTable(t *testing.T) {
	cache := &sync.Map{}
	var tables []string
	for _, m := range All() {
		s, err := schema.Parse(m, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		tables = append(tables, s.Table)
	}
	assert.ElementsMatch(t, []string{"videos", "posts", "smartlinks", "clicks", "emails", "revenues", "logs"}, tables)
}
