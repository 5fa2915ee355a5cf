package output

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/orchestration"
	testinghelpers "github.com/vsinha/prepcommittee/pkg/application/services/testing"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
)

func carrotResult(t *testing.T) *dto.CommitteeRunResult {
	t.Helper()
	orchestrator := orchestration.NewOrchestrator(logging.Nop(),
		orchestration.WithRunIDs(func() string { return "run-1" }))
	cctx := testinghelpers.Context(entities.ModeDual)
	cctx.Policy.Constraints.OverOrderBuffer = 0.02
	result, err := orchestrator.RunCommittee(context.Background(), testinghelpers.BuildCarrotScenario(), cctx)
	require.NoError(t, err)
	return result
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, carrotResult(t), Config{Format: FormatText, Audit: true}))

	text := buf.String()
	assert.Contains(t, text, "run-1")
	assert.Contains(t, text, "APPROVED")
	assert.Contains(t, text, "carrots")
	assert.Contains(t, text, "fresh-farms")
	assert.Contains(t, text, "90.00", "purchase order total")
	assert.Contains(t, text, "Audit trail")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, carrotResult(t), Config{Format: FormatJSON}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	decision, ok := decoded["decision"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "approved", decision["status"])
}

func TestGenerate_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, carrotResult(t), Config{Format: FormatYAML}))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, carrotResult(t), Config{Format: FormatCSV, OutputDir: dir}))

	for _, name := range []string{DemandPlanCSV, PurchaseOrdersCSV, PrepTasksCSV} {
		assert.Contains(t, buf.String(), name)
	}
	data, err := os.ReadFile(filepath.Join(dir, PurchaseOrdersCSV))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "fresh-farms")
	assert.Contains(t, lines[1], "carrots")

	err = Generate(&buf, carrotResult(t), Config{Format: FormatCSV})
	assert.Error(t, err, "csv needs an output directory")
}

func TestGenerate_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Generate(&buf, nil, Config{}))
	assert.Error(t, Generate(&buf, &dto.CommitteeRunResult{}, Config{Format: "html"}))
}

func TestValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Value(&buf, services.DefaultPolicy(), FormatYAML))
	assert.Contains(t, buf.String(), "max_under_order_risk: 0.2")

	buf.Reset()
	require.NoError(t, Value(&buf, services.DefaultPolicy(), FormatJSON))
	assert.Contains(t, buf.String(), `"quorum": 0.67`)

	assert.Error(t, Value(&buf, 1, "csv"))
}
