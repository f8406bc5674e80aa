package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mystock/warehouse/internal/domain/report"
	"go.uber.org/zap"
)

// CSVContentType is the media type of exported reports
const CSVContentType = "text/csv; charset=utf-8"

// CSVHeader is the first line of every exported report
var CSVHeader = []string{"name", "category", "stock", "unitPrice", "totalValue"}

// WriteCSV writes the rows as comma-separated text with a header line.
// Numbers use plain decimal notation without grouping.
func WriteCSV(w io.Writer, rows []report.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			row.Category,
			strconv.FormatInt(row.Stock, 10),
			row.UnitPrice.String(),
			row.TotalValue.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %q: %w", row.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportFileName returns the download name of a report taken at t
func ReportFileName(t time.Time) string {
	return "warehouse_report_" + t.Format(time.DateOnly) + ".csv"
}

// ReportStorage stores exported report files
type ReportStorage interface {
	// Put stores body under name and returns where it was written
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
}

// ExportResult describes a stored report
type ExportResult struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
	Bytes    int64  `json:"bytes"`
}

// ExportService renders the stock report and hands it to report storage
type ExportService struct {
	projections Reader
	storage     ReportStorage
	clock       func() time.Time
	logger      *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(projections Reader, storage ReportStorage, logger *zap.Logger) *ExportService {
	return &ExportService{
		projections: projections,
		storage:     storage,
		clock:       time.Now,
		logger:      logger,
	}
}

// WithClock sets the clock used to name report files
func (s *ExportService) WithClock(clock func() time.Time) *ExportService {
	s.clock = clock
	return s
}

// Render writes the current report as CSV
func (s *ExportService) Render(w io.Writer) (int, error) {
	rows := s.projections.ExportRows()
	if err := WriteCSV(w, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// FileName returns the name the current report is stored under
func (s *ExportService) FileName() string {
	return ReportFileName(s.clock())
}

// Export renders the current report and stores it
func (s *ExportService) Export(ctx context.Context) (*ExportResult, error) {
	var buf bytes.Buffer
	rows, err := s.Render(&buf)
	if err != nil {
		return nil, err
	}

	name := s.FileName()
	size := int64(buf.Len())
	location, err := s.storage.Put(ctx, name, &buf, size, CSVContentType)
	if err != nil {
		return nil, fmt.Errorf("store report %s: %w", name, err)
	}

	s.logger.Info("stock report exported",
		zap.String("name", name),
		zap.String("location", location),
		zap.Int("rows", rows),
	)
	return &ExportResult{
		Name:     name,
		Location: location,
		Rows:     rows,
		Bytes:    size,
	}, nil
}
