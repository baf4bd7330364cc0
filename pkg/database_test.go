package dragon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVariablesFromSqlite(t *testing.T) {
	config := DefaultConfiguration()
	config.DBDriver = "sqlite"
	config.DBFile = filepath.Join(t.TempDir(), "variables.db")

	db, err := ConnectToDatabase(config)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, CreateVariablesTable(db))
	require.NoError(t, InsertVariable(db, "head/bank/adc", "HADC", 0, 1000))
	require.NoError(t, InsertVariable(db, "head/bank/adc", "NADC", 500, 600))
	require.NoError(t, InsertVariable(db, "scaler/head/read_period", "2", 0, 100))

	tests := []struct {
		run  int
		want MapVariables
	}{
		{50, MapVariables{"head/bank/adc": "HADC", "scaler/head/read_period": "2"}},
		{550, MapVariables{"head/bank/adc": "NADC"}},
		{2000, MapVariables{}},
	}
	for _, tt := range tests {
		variables, err := LoadVariablesFromDB(db, tt.run)
		require.NoError(t, err)
		assert.Equal(t, tt.want, variables, "run %d", tt.run)
	}

	variables, err := LoadVariablesFromDB(db, 550)
	require.NoError(t, err)
	u := newTestUnpacker(t, singlesMode)
	require.NoError(t, u.HandleBOR(variables))
	assert.Equal(t, "NADC", u.Head.Variables.AdcBank)
}

func TestConnectUnsupportedDriver(t *testing.T) {
	config := DefaultConfiguration()
	config.DBDriver = "postgres"
	_, err := ConnectToDatabase(config)
	assert.Error(t, err)
}
