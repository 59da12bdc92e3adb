package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/five82/histoqcview/internal/girder"
)

// Format selects the output encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "xlsx", "yaml" or "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want xlsx or yaml)", s)
	}
}

// Source is the part of the Girder API an export needs.
type Source interface {
	FetchOutputs(ctx context.Context, folderID string) (girder.Outputs, error)
	DownloadItem(ctx context.Context, itemID string) ([]byte, error)
}

// Service downloads a folder's grouped results and re-encodes them.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService builds a Service reading from source.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// Dataset fetches and parses the grouped results for folderID.
func (s *Service) Dataset(ctx context.Context, folderID string) (Dataset, error) {
	outputs, err := s.source.FetchOutputs(ctx, folderID)
	if err != nil {
		return Dataset{}, fmt.Errorf("fetch outputs: %w", err)
	}
	if outputs.Grouped.ID == "" {
		return Dataset{}, fmt.Errorf("folder %s has no grouped results: %w", folderID, ErrNoDataset)
	}
	raw, err := s.source.DownloadItem(ctx, outputs.Grouped.ID)
	if err != nil {
		return Dataset{}, fmt.Errorf("download grouped results: %w", err)
	}
	ds, err := ParseDataset(bytes.NewReader(raw))
	if err != nil {
		return Dataset{}, fmt.Errorf("parse %s: %w", outputs.Grouped.Name, err)
	}
	return ds, nil
}

// Export writes folderID's grouped results to w in the given format.
func (s *Service) Export(ctx context.Context, folderID string, format Format, w io.Writer) error {
	start := time.Now()

	ds, err := s.Dataset(ctx, folderID)
	if err != nil {
		return err
	}

	switch format {
	case FormatYAML:
		err = WriteYAML(w, ds)
	default:
		err = WriteXLSX(w, ds)
	}
	if err != nil {
		return err
	}

	s.logger.Info("export finished",
		"folder_id", folderID,
		"format", string(format),
		"rows", len(ds.Rows),
		"columns", len(ds.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
