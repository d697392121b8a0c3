package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/triage/backend/internal/classify"
	"github.com/triage/backend/internal/csvparse"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunImport(t *testing.T) {
	path := writeFile(t, "in.csv", "sender,subject,body,sent_date\n"+
		"Jane <jane@x.com>,Help,\"Please, the api is broken\",2024-03-01 09:00\n"+
		"a@b.com,short,row\n")

	var out bytes.Buffer
	err := runImport(context.Background(), path, "", "UTC", "", zerolog.Nop(), &out)
	require.NoError(t, err)

	var got importOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 1, got.Report.TotalRows)
	assert.Equal(t, 1, got.Report.Succeeded)
	require.Len(t, got.Report.Tickets, 1)
	assert.Equal(t, "Please, the api is broken", got.Report.Tickets[0].Body)
	assert.Equal(t, 1, got.Analysis.TimeDistribution[9])
}

func TestRunImportFatalErrors(t *testing.T) {
	missing := writeFile(t, "bad.csv", "sender,subject\nx,y\n")
	err := runImport(context.Background(), missing, "", "", "", zerolog.Nop(), &bytes.Buffer{})
	var mc *csvparse.MissingColumnsError
	require.True(t, errors.As(err, &mc))

	err = runImport(context.Background(), filepath.Join(t.TempDir(), "none.csv"), "", "", "", zerolog.Nop(), &bytes.Buffer{})
	require.Error(t, err)

	ok := writeFile(t, "ok.csv", "sender,subject,body,sent_date\na,b,c,d\n")
	err = runImport(context.Background(), ok, "", "Nowhere/Zone", "", zerolog.Nop(), &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunLexiconOverride(t *testing.T) {
	path := writeFile(t, "lex.yaml", "urgency:\n  - Outage\n")

	var out bytes.Buffer
	require.NoError(t, runLexicon(path, &out))

	var spec classify.LexiconSpec
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &spec))
	assert.Equal(t, []string{"outage"}, spec.Urgency)
	assert.Equal(t, classify.DefaultLexicon().Positive(), spec.Positive)
}
