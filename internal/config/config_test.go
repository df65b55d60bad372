package config_test

import (
	"path/filepath"
	"testing"

	"github.com/entrhq/voyager/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveThenLoadRoundTripsSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := config.NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("runtime", map[string]interface{}{"maxContexts": float64(7)}))
	require.NoError(t, store.Save())

	reloaded, err := config.NewFileStore(path)
	require.NoError(t, err)

	data, err := reloaded.GetSection("runtime")
	require.NoError(t, err)
	assert.Equal(t, float64(7), data["maxContexts"])
}

func TestFileStoreLoadToleratesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	store, err := config.NewFileStore(path)
	require.NoError(t, err)

	data, err := store.GetSection("runtime")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestManagerLoadAllFeedsRegisteredSectionsFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := config.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetSection(config.SectionIDRuntime, map[string]interface{}{
		"maxContexts": float64(42),
		"maxRetries":  float64(9),
	}))
	require.NoError(t, store.Save())

	reopened, err := config.NewFileStore(path)
	require.NoError(t, err)

	manager := config.NewManager(reopened)
	runtime := config.DefaultRuntimeSection()
	require.NoError(t, manager.RegisterSection(runtime))

	require.NoError(t, manager.LoadAll())
	assert.Equal(t, 42, runtime.MaxContexts)
	assert.Equal(t, 9, runtime.MaxRetries)
	assert.Equal(t, 30_000, runtime.HealthIntervalMs, "unset fields keep their defaults")
}

func TestManagerRegisterSectionRejectsDuplicateID(t *testing.T) {
	store, err := config.NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	manager := config.NewManager(store)

	require.NoError(t, manager.RegisterSection(config.DefaultRuntimeSection()))
	err = manager.RegisterSection(config.DefaultRuntimeSection())
	assert.Error(t, err)
}

func TestManagerSaveAllPersistsEverySectionThenGetSectionReturnsIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := config.NewFileStore(path)
	require.NoError(t, err)
	manager := config.NewManager(store)

	approval := config.NewApprovalSection()
	approval.Tools["click"] = true
	require.NoError(t, manager.RegisterSection(approval))

	require.NoError(t, manager.SaveAll())

	reopened, err := config.NewFileStore(path)
	require.NoError(t, err)
	data, err := reopened.GetSection(config.SectionIDApproval)
	require.NoError(t, err)

	tools, ok := data["tools"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, tools["click"])
}

func TestRuntimeSectionSetDataRejectsWrongType(t *testing.T) {
	r := config.DefaultRuntimeSection()
	err := r.SetData(map[string]interface{}{"maxContexts": "not-a-number"})
	assert.Error(t, err)
}

func TestApprovalSectionIsToolAutoApprovedDefaultsFalse(t *testing.T) {
	a := config.NewApprovalSection()
	assert.False(t, a.IsToolAutoApproved("click"))
	a.Tools["click"] = true
	assert.True(t, a.IsToolAutoApproved("click"))
}

func TestRedactionSectionSetDataParsesExtraKeysAndToggle(t *testing.T) {
	r := config.NewRedactionSection()
	err := r.SetData(map[string]interface{}{
		"extraSensitiveKeys": []interface{}{"internalToken"},
		"redactTypedText":    false,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"internalToken"}, r.ExtraSensitiveKeys)
	assert.False(t, r.RedactTypedText)
}

func TestLoadPathsUsesEnvOverrideThenFallsBackToDefault(t *testing.T) {
	t.Setenv(config.EnvArtifactsDir, "/custom/artifacts")

	paths := config.LoadPaths("/base")
	assert.Equal(t, "/custom/artifacts", paths.ArtifactsDir)
	assert.Equal(t, "/base/profiles", paths.ProfilesDir)
}

func TestLogLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, "info", config.LogLevel())
}
