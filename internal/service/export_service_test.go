package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

type memBlobWriter struct {
	paths map[string][]byte
}

func (w *memBlobWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if w.paths == nil {
		w.paths = map[string][]byte{}
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.paths[path] = b
	return nil
}

func (w *memBlobWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return w.Put(ctx, path, data, "")
}

func TestRenderCSV(t *testing.T) {
	store := &memFillStore{fills: []domain.Fill{someFill("ETH"), someFill("BTC")}}
	svc := NewExportService(store, nil, testLogger())

	data, err := svc.Render(context.Background(), domain.FillFilter{}, ExportCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one row per fill")
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "ETH", records[1][1])
	assert.Equal(t, "3400", records[1][3])
	assert.Equal(t, "", records[1][6], "nil realized pnl renders empty")
}

func TestRenderJSON(t *testing.T) {
	store := &memFillStore{fills: []domain.Fill{someFill("ETH")}}
	svc := NewExportService(store, nil, testLogger())

	data, err := svc.Render(context.Background(), domain.FillFilter{}, ExportJSON)
	require.NoError(t, err)

	var fills []domain.Fill
	require.NoError(t, json.Unmarshal(data, &fills))
	require.Len(t, fills, 1)
	assert.Equal(t, "ETH", fills[0].Symbol)
}

func TestRenderUnknownFormat(t *testing.T) {
	svc := NewExportService(&memFillStore{}, nil, testLogger())

	_, err := svc.Render(context.Background(), domain.FillFilter{}, "parquet")
	require.Error(t, err)
}

func TestRenderFilterPassesThrough(t *testing.T) {
	store := &memFillStore{fills: []domain.Fill{someFill("ETH"), someFill("BTC")}}
	svc := NewExportService(store, nil, testLogger())

	data, err := svc.Render(context.Background(), domain.FillFilter{Symbol: "BTC"}, ExportJSON)
	require.NoError(t, err)

	var fills []domain.Fill
	require.NoError(t, json.Unmarshal(data, &fills))
	require.Len(t, fills, 1)
	assert.Equal(t, "BTC", fills[0].Symbol)
}

func TestExportUploads(t *testing.T) {
	store := &memFillStore{fills: []domain.Fill{someFill("ETH")}}
	writer := &memBlobWriter{}
	svc := NewExportService(store, writer, testLogger())

	path, err := svc.Export(context.Background(), domain.FillFilter{}, ExportCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "exports/fills/"))
	assert.True(t, strings.HasSuffix(path, ".csv"))
	assert.NotEmpty(t, writer.paths[path])
}

func TestExportWithoutWriter(t *testing.T) {
	svc := NewExportService(&memFillStore{}, nil, testLogger())

	_, err := svc.Export(context.Background(), domain.FillFilter{}, ExportJSON)
	require.Error(t, err)
}
