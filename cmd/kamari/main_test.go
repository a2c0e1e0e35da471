package main

import (
	"io"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) ([]string, bool, error) {
	var (
		got    []string
		called bool
	)
	cmd := newRootCommand(viper.New(), func(files []string) error {
		got, called = files, true
		return nil
	})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return got, called, err
}

func TestRootCommand_ConfFlag(t *testing.T) {
	files, called, err := execute(t, "--conf", "etc/base.yaml,etc/prod.yaml")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"etc/base.yaml", "etc/prod.yaml"}, files)

	files, _, err = execute(t)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRootCommand_ConfEnv(t *testing.T) {
	t.Setenv("KAMARI_CONF", "etc/env.yaml")
	files, _, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"etc/env.yaml"}, files)

	files, _, err = execute(t, "--conf", "etc/flag.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"etc/flag.yaml"}, files)
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	_, called, err := execute(t, "serve")
	assert.Error(t, err)
	assert.False(t, called)
}
