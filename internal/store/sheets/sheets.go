// Package sheets stores blobs in a Google Sheets tab: one row per key,
// column A holds the key and column B the blob.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/store"
)

// A single cell holds at most 50000 characters.
const maxCellChars = 50000

var ErrBlobTooLarge = errors.New("sheets: blob exceeds cell size limit")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ store.KV = (*Client)(nil)

// Config selects the spreadsheet and credentials. Either CredentialsJSON or
// CredentialsFile must be set unless extra client options provide auth.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets-backed store using service account credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Budget"
	}

	if len(opts) == 0 {
		credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
		if len(credentialsJSON) == 0 {
			if cfg.CredentialsFile == "" {
				return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
			}
			b, err := os.ReadFile(cfg.CredentialsFile)
			if err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
			credentialsJSON = b
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets store ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet", sheet)

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

func (c *Client) readAll(ctx context.Context) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!A:B", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// findRow returns the 1-based row holding key and its value.
func findRow(rows [][]interface{}, key string) (row int, value string, ok bool) {
	for i, r := range rows {
		if len(r) == 0 || strings.TrimSpace(fmt.Sprint(r[0])) != key {
			continue
		}
		if len(r) > 1 {
			value = fmt.Sprint(r[1])
		}
		return i + 1, value, true
	}
	return 0, "", false
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rows, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	_, value, ok := findRow(rows, key)
	if !ok {
		return nil, store.ErrNotFound
	}
	return []byte(value), nil
}

func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	if len(value) > maxCellChars {
		return fmt.Errorf("%w: %d bytes", ErrBlobTooLarge, len(value))
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rows, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]interface{}{{key, string(value)}}}

	if row, _, ok := findRow(rows, key); ok {
		rng := fmt.Sprintf("%s!A%d:B%d", c.sheet, row, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:B", c.sheet)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Close() error { return nil }
