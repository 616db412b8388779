package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// ExportFormat selects how exported fills are rendered.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ExportPrefix is the object-store prefix under which fill exports live.
const ExportPrefix = "exports/fills/"

// ExportService renders stored fill history into portable artifacts and
// uploads them to object storage.
type ExportService struct {
	fills  domain.FillStore
	writer domain.BlobWriter
	logger *slog.Logger
}

// NewExportService creates an ExportService. writer may be nil when exports
// are only rendered locally.
func NewExportService(fills domain.FillStore, writer domain.BlobWriter, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		fills:  fills,
		writer: writer,
		logger: logger,
	}
}

// Render fetches fills matching the filter and serialises them in the
// requested format.
func (s *ExportService) Render(ctx context.Context, f domain.FillFilter, format ExportFormat) ([]byte, error) {
	fills, err := s.fills.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("export_service: query fills: %w", err)
	}

	switch format {
	case ExportCSV:
		return renderCSV(fills)
	case ExportJSON:
		return json.MarshalIndent(fills, "", "  ")
	default:
		return nil, fmt.Errorf("export_service: unknown format %q", format)
	}
}

// Export renders fills and uploads the artifact to
// exports/fills/{timestamp}.{ext}. It returns the object path.
func (s *ExportService) Export(ctx context.Context, f domain.FillFilter, format ExportFormat) (string, error) {
	if s.writer == nil {
		return "", fmt.Errorf("export_service: no blob writer configured")
	}

	data, err := s.Render(ctx, f, format)
	if err != nil {
		return "", err
	}

	path := exportPath(format, time.Now().UTC())
	contentType := "application/json"
	if format == ExportCSV {
		contentType = "text/csv"
	}
	if err := s.writer.Put(ctx, path, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("export_service: upload %s: %w", path, err)
	}

	s.logger.InfoContext(ctx, "export_service: export uploaded",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	return path, nil
}

func exportPath(format ExportFormat, at time.Time) string {
	ext := "json"
	if format == ExportCSV {
		ext = "csv"
	}
	return fmt.Sprintf("%s%s.%s", ExportPrefix, at.Format("2006-01-02T15-04-05Z"), ext)
}

var csvHeader = []string{
	"protocol", "symbol", "side", "price", "size", "fee",
	"realized_pnl", "order_id", "tx_hash", "timestamp_ms",
}

func renderCSV(fills []domain.Fill) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("export_service: write csv header: %w", err)
	}
	for _, f := range fills {
		record := []string{
			string(f.Protocol),
			f.Symbol,
			string(f.Side),
			f.Price.String(),
			f.Size.String(),
			f.Fee.String(),
			decimalOrEmpty(f.RealizedPnl),
			f.OrderID,
			f.TxHash,
			strconv.FormatUint(f.TimestampMs, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("export_service: write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export_service: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func decimalOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
