package google

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/sheet"
)

// SheetsClient is a sheet.Workbook backed by a Google spreadsheet.
type SheetsClient struct {
	srv           *sheets.Service
	spreadsheetID string
	props         map[string]*sheets.SheetProperties
}

func (c *SheetsClient) refresh(ctx context.Context) error {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve spreadsheet: %w", err)
	}
	props := make(map[string]*sheets.SheetProperties, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			props[s.Properties.Title] = s.Properties
		}
	}
	c.props = props
	return nil
}

func (c *SheetsClient) properties(ctx context.Context, name string) (*sheets.SheetProperties, error) {
	if p, ok := c.props[name]; ok {
		return p, nil
	}
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	if p, ok := c.props[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", sheet.ErrSheetNotFound, name)
}

func (c *SheetsClient) batch(ctx context.Context, reqs ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
}

// SheetNames lists the sheets of the spreadsheet in tab order.
func (c *SheetsClient) SheetNames(ctx context.Context) ([]string, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	props := make([]*sheets.SheetProperties, 0, len(c.props))
	for _, p := range c.props {
		props = append(props, p)
	}
	slices.SortFunc(props, func(a, b *sheets.SheetProperties) int {
		return cmp.Compare(a.Index, b.Index)
	})
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Title
	}
	return names, nil
}

func (c *SheetsClient) HasSheet(ctx context.Context, name string) (bool, error) {
	if err := c.refresh(ctx); err != nil {
		return false, err
	}
	_, ok := c.props[name]
	return ok, nil
}

func (c *SheetsClient) CreateSheet(ctx context.Context, name string) error {
	resp, err := c.batch(ctx, &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
	})
	if err != nil {
		return err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return fmt.Errorf("no sheet returned for %q", name)
	}
	if c.props == nil {
		c.props = make(map[string]*sheets.SheetProperties)
	}
	c.props[name] = resp.Replies[0].AddSheet.Properties
	return nil
}

func (c *SheetsClient) Dimensions(ctx context.Context, name string) (sheet.Dimensions, error) {
	if err := c.refresh(ctx); err != nil {
		return sheet.Dimensions{}, err
	}
	p, err := c.properties(ctx, name)
	if err != nil {
		return sheet.Dimensions{}, err
	}
	if p.GridProperties == nil {
		return sheet.Dimensions{}, nil
	}
	return sheet.Dimensions{
		Rows:    int(p.GridProperties.RowCount),
		Columns: int(p.GridProperties.ColumnCount),
	}, nil
}

func (c *SheetsClient) ReadRows(ctx context.Context, name string) ([]model.Row, error) {
	if _, err := c.properties(ctx, name); err != nil {
		return nil, err
	}
	vr, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, quoteTitle(name)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read values of %q: %w", name, err)
	}
	return toRows(vr.Values), nil
}

func (c *SheetsClient) WriteRows(ctx context.Context, name string, startRow int, rows []model.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("refusing to write an empty block to %q", name)
	}
	if _, err := c.properties(ctx, name); err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d", quoteTitle(name), startRow)
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, rng, &sheets.ValueRange{
		Values: toValues(rows),
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write values to %s: %w", rng, err)
	}
	return nil
}

// CopyFormat resizes dst to dims and pastes the formatting of src onto it.
func (c *SheetsClient) CopyFormat(ctx context.Context, src, dst string, dims sheet.Dimensions) error {
	from, err := c.properties(ctx, src)
	if err != nil {
		return err
	}
	to, err := c.properties(ctx, dst)
	if err != nil {
		return err
	}
	_, err = c.batch(ctx,
		&sheets.Request{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId: to.SheetId,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(dims.Rows),
					ColumnCount: int64(dims.Columns),
				},
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "gridProperties(rowCount,columnCount)",
		}},
		&sheets.Request{CopyPaste: &sheets.CopyPasteRequest{
			Source:           gridRange(from.SheetId, 1, dims.Rows, 1, dims.Columns),
			Destination:      gridRange(to.SheetId, 1, dims.Rows, 1, dims.Columns),
			PasteType:        "PASTE_FORMAT",
			PasteOrientation: "NORMAL",
		}},
	)
	if err != nil {
		return fmt.Errorf("unable to copy formatting from %q to %q: %w", src, dst, err)
	}
	return nil
}

func (c *SheetsClient) SetValidation(ctx context.Context, name string, col, fromRow, toRow int, values []string) error {
	p, err := c.properties(ctx, name)
	if err != nil {
		return err
	}
	cond := make([]*sheets.ConditionValue, len(values))
	for i, v := range values {
		cond[i] = &sheets.ConditionValue{UserEnteredValue: v}
	}
	_, err = c.batch(ctx, &sheets.Request{SetDataValidation: &sheets.SetDataValidationRequest{
		Range: gridRange(p.SheetId, fromRow, toRow, col, col),
		Rule: &sheets.DataValidationRule{
			Condition: &sheets.BooleanCondition{
				Type:   "ONE_OF_LIST",
				Values: cond,
			},
			Strict:       true,
			ShowCustomUi: true,
		},
	}})
	return err
}

func (c *SheetsClient) SetColumnWidth(ctx context.Context, name string, col, px int) error {
	p, err := c.properties(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.batch(ctx, &sheets.Request{UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
		Range: &sheets.DimensionRange{
			SheetId:         p.SheetId,
			Dimension:       "COLUMNS",
			StartIndex:      int64(col - 1),
			EndIndex:        int64(col),
			ForceSendFields: []string{"SheetId", "StartIndex"},
		},
		Properties: &sheets.DimensionProperties{PixelSize: int64(px)},
		Fields:     "pixelSize",
	}})
	return err
}

// gridRange converts 1-based inclusive rows and columns to a half-open GridRange.
func gridRange(sheetID int64, fromRow, toRow, fromCol, toCol int) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(fromRow - 1),
		EndRowIndex:      int64(toRow),
		StartColumnIndex: int64(fromCol - 1),
		EndColumnIndex:   int64(toCol),
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

// quoteTitle makes a sheet title safe to use in A1 notation.
func quoteTitle(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toRows(values [][]interface{}) []model.Row {
	rows := make([]model.Row, len(values))
	for i, vs := range values {
		r := make(model.Row, len(vs))
		for j, v := range vs {
			if v == nil {
				v = ""
			}
			r[j] = v
		}
		rows[i] = r
	}
	return rows
}

func toValues(rows []model.Row) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		vs := make([]interface{}, len(r))
		for j, v := range r {
			vs[j] = v
		}
		values[i] = vs
	}
	return values
}

var _ sheet.Workbook = (*SheetsClient)(nil)
