package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("branch", "p11"))
	require.NoError(t, cfg.SetValue("archs", "x86_64, noarch,"))
	require.NoError(t, cfg.SetValue("max_closure_rounds", "7"))
	require.NoError(t, cfg.SetValue("cycle_tie_break", "lexical"))

	assert.Equal(t, "p11", cfg.Settings.Branch)
	assert.Equal(t, []string{"x86_64", "noarch"}, cfg.Settings.Archs)
	assert.Equal(t, 7, cfg.Settings.MaxClosureRounds)
	assert.NoError(t, cfg.Validate())

	require.NoError(t, cfg.SetValue("archs", ""))
	assert.Nil(t, cfg.Settings.Archs)

	assert.Error(t, cfg.SetValue("max_closure_rounds", "many"))
	assert.Error(t, cfg.SetValue("cache_dir", "/tmp"))
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.Archs = []string{"i586", "noarch"}

	v, err := cfg.GetValue("archs")
	require.NoError(t, err)
	assert.Equal(t, "i586,noarch", v)

	v, err = cfg.GetValue("max_closure_rounds")
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	_, err = cfg.GetValue("color_output")
	assert.Error(t, err)
}

func TestToMap(t *testing.T) {
	m := DefaultConfig().ToMap()
	assert.Len(t, m, len(Keys))
	assert.Equal(t, "size", m["cycle_tie_break"])
	assert.Equal(t, "sisyphus", m["branch"])
}
