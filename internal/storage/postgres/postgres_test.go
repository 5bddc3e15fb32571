package postgres

import (
	"testing"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b := New(config.DBConfig{}, nil, "test")
	require.NotNil(t, b)
	assert.Nil(t, b.DB(), "connection is opened by Init")
}

func TestInit_Unreachable(t *testing.T) {
	b := New(config.DBConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "rf2sync",
	}, nil, "test")

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
	assert.NoError(t, b.Close())
}

func TestRecordBeforeInit(t *testing.T) {
	b := New(config.DBConfig{}, nil, "test")
	assert.ErrorIs(t, b.RecordSample(&core.TelemetrySample{}), core.ErrSessionNotStarted)
	assert.Error(t, b.StartSession(&core.Session{}))
}
