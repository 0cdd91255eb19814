package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectUsernamesSplitsArgs(t *testing.T) {
	got := collectUsernames([]string{"natgeo, nasa", "bbcearth"})
	assert.Equal(t, []string{"natgeo", "nasa", "bbcearth"}, got)
}

func TestAnalyzeFlags(t *testing.T) {
	for _, name := range []string{"max-posts", "schedule", "no-export", "quiet"} {
		require.NotNil(t, analyzeCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "false", analyzeCmd.Flags().Lookup("quiet").DefValue)
}
