package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ontosim/gateway"
	"github.com/c360/ontosim/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(append([]string{"--log-level", "error"}, args...), &stdout, io.Discard)
	return stdout.String(), err
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "ontosim version "+Version+"\n", out)
}

func TestRun_ConceptForLabel(t *testing.T) {
	out, err := runCLI(t, "--ontology", testutil.SampleMeSHPath(), "--concept-for-label", "Morals")
	require.NoError(t, err)

	var got gateway.ConceptResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, testutil.ID(testutil.Morals).String(), got.Concept)
}

func TestRun_Pairwise(t *testing.T) {
	out, err := runCLI(t, "--ontology", testutil.SampleMeSHPath(),
		"--pairwise", testutil.Morals+","+testutil.SocialBehavior)
	require.NoError(t, err)

	var got gateway.ScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 0.884, got.Score, 0.001)
}

func TestRun_PairwiseMeasureFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontosim.yaml")
	content := "ontology:\n  path: " + testutil.SampleMeSHPath() + "\nsimilarity:\n  measure: wu_palmer\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := runCLI(t, "--config", path, "--pairwise", testutil.Morals+","+testutil.Ethics)
	require.NoError(t, err)

	var got gateway.ScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Greater(t, got.Score, 0.0)
	assert.LessOrEqual(t, got.Score, 1.0)
}

func TestRun_Neighborhood(t *testing.T) {
	out, err := runCLI(t, "--ontology", testutil.SampleMeSHPath(),
		"--neighborhood", testutil.Morals, "--threshold", "0.8")
	require.NoError(t, err)

	var got gateway.NeighborhoodResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{
		testutil.ID(testutil.Morals).String(),
		testutil.ID(testutil.SocialBehavior).String(),
	}, got.Concepts)
}

func TestRun_Validate(t *testing.T) {
	out, err := runCLI(t, "--ontology", testutil.SampleMeSHPath(), "--validate")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no ontology", []string{"--pairwise", "D1,D2"}},
		{"missing config", []string{"--config", "/nonexistent/ontosim.yaml"}},
		{"two queries", []string{"--ontology", "x.xml", "--pairwise", "D1,D2", "--neighborhood", "D1"}},
		{"bad pair", []string{"--ontology", "x.xml", "--pairwise", "D1"}},
		{"bad sets", []string{"--ontology", "x.xml", "--groupwise", "D1,D2"}},
		{"bad log level", []string{"--ontology", "x.xml", "--log-level", "loud"}},
		{"missing ontology file", []string{"--ontology", filepath.Join(os.TempDir(), "absent.xml"), "--pairwise", "D1,D2"}},
		{"nothing to serve", []string{"--ontology", testutil.SampleMeSHPath()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ONTOSIM_ONTOLOGY_PATH", "")
			t.Setenv("ONTOSIM_CONFIG", "")
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestSplitSets(t *testing.T) {
	a, b, err := splitSets("D1, D2;D3")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, a)
	assert.Equal(t, []string{"D3"}, b)
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-h"}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Usage: ontosim [options]")
	assert.Contains(t, stderr.String(), "-neighborhood")
}

func TestParseFlags_EnvDefaults(t *testing.T) {
	t.Setenv("ONTOSIM_LOG_LEVEL", "warn")
	t.Setenv("ONTOSIM_DEBUG", "false")

	cli, err := parseFlags([]string{"--pairwise", "D1,D2"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "warn", cli.LogLevel)
	assert.True(t, cli.HasQuery())
	assert.InDelta(t, 0.9, cli.Threshold, 1e-9)

	cli, err = parseFlags([]string{"--debug"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "debug", cli.LogLevel)
	assert.False(t, cli.HasQuery())
}
