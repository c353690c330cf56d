package report

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/okian/argos/internal/domain/types"
	"github.com/okian/argos/pkg/logger"
)

// Column width bounds, in characters.
const (
	minColWidth  = 8
	maxColWidth  = 60
	widthPadding = 2
	defaultSheet = "Sheet1"
)

// Writer saves workbooks as .xlsx files.
type Writer struct {
	autofit bool
	logger  logger.Logger
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithAutofit toggles fitting column widths to their content.
func WithAutofit(enabled bool) Option {
	return func(w *Writer) {
		w.autofit = enabled
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter creates a writer with autofit enabled.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{autofit: true, logger: logger.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write saves wb to path. Every sheet gets a bold, frozen header row.
func (w *Writer) Write(ctx context.Context, path string, wb Workbook) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWrite, cerr)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for i, s := range wb.Sheets {
		if i == 0 {
			err = f.SetSheetName(defaultSheet, s.Name)
		} else {
			_, err = f.NewSheet(s.Name)
		}
		if err != nil {
			return fmt.Errorf("%w: sheet %s: %w", ErrWrite, s.Name, err)
		}
		if err := w.writeSheet(f, s, header); err != nil {
			return fmt.Errorf("%w: sheet %s: %w", ErrWrite, s.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	w.logger.Info(ctx, "report written", logger.String("path", path), logger.Int("sheets", len(wb.Sheets)))
	return nil
}

func (w *Writer) writeSheet(f *excelize.File, s Sheet, header int) error {
	widths := make([]int, len(s.Columns))
	for j, c := range s.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.Name, cell, c); err != nil {
			return err
		}
		widths[j] = utf8.RuneCountInString(c)
	}
	if len(s.Columns) > 0 {
		if err := f.SetRowStyle(s.Name, 1, 1, header); err != nil {
			return err
		}
		if err := f.SetPanes(s.Name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}

	for i, row := range s.Rows {
		for j, v := range row {
			if v.IsAbsent() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.Name, cell, cellValue(v)); err != nil {
				return err
			}
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(v.String()))
			}
		}
	}

	if !w.autofit {
		return nil
	}
	for j, width := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, col, col, FitWidth(width)); err != nil {
			return err
		}
	}
	return nil
}

// FitWidth turns a content length into a bounded column width.
func FitWidth(chars int) float64 {
	return float64(min(max(chars+widthPadding, minColWidth), maxColWidth))
}

// cellValue picks the native cell type for v. Times are written in the
// report's day-first text form.
func cellValue(v types.Value) any {
	switch v.Kind() {
	case types.KindTime:
		return v.String()
	default:
		return v.Raw()
	}
}
