package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		ID:        "abc12345-6789-0000-0000-000000000000",
		Type:      model.TypeTurnover,
		Name:      "FY2024",
		CreatedAt: time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		Data:      map[string]float64{"annual_rate": 7.5},
		RiskLevel: model.Ptr(model.RiskModerate),
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"json", []string{`"id": "abc12345`, `"annual_rate": 7.5`}},
		{"", []string{`"type": "turnover"`}},
		{"yaml", []string{"id: abc12345", "annual_rate: 7.5", "risk_level: moderate"}},
		{"YML", []string{"name: FY2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf, tt.format, sampleResult()))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	err := encode(&bytes.Buffer{}, "xml", sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	outputPath, outputFormat = path, "json"
	t.Cleanup(func() { outputPath, outputFormat = "", "json" })

	require.NoError(t, writeOutput(sampleResult()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "FY2024"`)
}

func TestReportValidation(t *testing.T) {
	var buf bytes.Buffer
	reportValidation(&buf, model.ValidationResult{
		Errors:      []string{"no item columns"},
		Warnings:    []string{"20% missing"},
		Suggestions: []string{"check the export"},
	})
	assert.Equal(t, "error: no item columns\nwarning: 20% missing\nsuggestion: check the export\n", buf.String())
}

func TestFormatResultsList(t *testing.T) {
	var buf bytes.Buffer
	formatResultsList(&buf, []model.AnalysisResult{*sampleResult()})

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "RISK")
	assert.Contains(t, output, "abc12345-6789-0000-0000-000000000000")
	assert.Contains(t, output, "turnover")
	assert.Contains(t, output, "moderate")
	assert.Contains(t, output, "2025-06-15 10:30")
}

func TestFormatInstruments(t *testing.T) {
	infos := make([]catalog.Info, 0)
	for _, in := range catalog.All() {
		infos = append(infos, in.Info())
	}
	var buf bytes.Buffer
	formatInstruments(&buf, infos)

	output := buf.String()
	assert.Contains(t, output, "DIMENSIONS")
	assert.Contains(t, output, "COPSOQ III")
	assert.Contains(t, output, "Dutch Work Addiction Scale")
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "survey-2024", baseName("/data/survey-2024.xlsx"))
	assert.Equal(t, "export", baseName("https://hr.example.com/files/export.csv"))
}
