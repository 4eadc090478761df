package sitecfg_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/sitecfg"
)

var operator = sitecfg.Identity{Authenticated: true, Subject: "bob", Token: "t-bob"}

func TestMigratorUploadsSanitizedLocalAndClears(t *testing.T) {
	gateway := newFakeGateway()
	local := &memoryLocal{}
	saved := blobDocument()
	require.NoError(t, local.WriteSaved(context.Background(), saved))

	result := sitecfg.NewMigrator(gateway, local, zerolog.Nop()).Run(context.Background(), operator)

	assert.True(t, result.Migrated)
	assert.Equal(t, "migrated-bob", result.ConfigID)
	require.NotNil(t, result.Config)
	assert.Empty(t, result.Config.Branding.LogoURL)
	assert.Nil(t, result.Config.Branding.LogoID)
	require.Equal(t, 1, gateway.migrationCount())
	assert.Equal(t, *result.Config, gateway.migrations[0])
	assert.False(t, local.HasSaved(context.Background()))
}

func TestMigratorWithoutLocalDocument(t *testing.T) {
	gateway := newFakeGateway()

	result := sitecfg.NewMigrator(gateway, &memoryLocal{}, zerolog.Nop()).Run(context.Background(), operator)

	assert.False(t, result.Migrated)
	assert.Nil(t, result.Config)
	assert.Zero(t, gateway.migrationCount())
}

func TestMigratorKeepsLocalOnFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.migrateErr = errTransport
	local := &memoryLocal{}
	require.NoError(t, local.WriteSaved(context.Background(), appearance.Default()))

	result := sitecfg.NewMigrator(gateway, local, zerolog.Nop()).Run(context.Background(), operator)

	assert.False(t, result.Migrated)
	assert.NotNil(t, result.Config)
	assert.True(t, local.HasSaved(context.Background()))
}

func TestMigratorSkipsWhileInFlight(t *testing.T) {
	gateway := newFakeGateway()
	gateway.migrateGate = make(chan struct{})
	gateway.migrateIn = make(chan struct{}, 1)
	local := &memoryLocal{}
	require.NoError(t, local.WriteSaved(context.Background(), appearance.Default()))
	migrator := sitecfg.NewMigrator(gateway, local, zerolog.Nop())

	first := make(chan sitecfg.MigrationResult, 1)
	go func() {
		first <- migrator.Run(context.Background(), operator)
	}()
	<-gateway.migrateIn
	assert.True(t, migrator.InFlight())

	second := migrator.Run(context.Background(), operator)
	assert.True(t, second.Skipped)
	assert.NotNil(t, second.Config)

	close(gateway.migrateGate)
	assert.True(t, (<-first).Migrated)
	assert.False(t, migrator.InFlight())
	assert.Equal(t, 1, gateway.migrationCount())
}
