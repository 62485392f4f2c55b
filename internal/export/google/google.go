// Package google exports subscription snapshots to a Google Sheets
// spreadsheet using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"subsentry/internal/core"
	ports "subsentry/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SnapshotExporter = (*Client)(nil)

// NewFromEnv creates a Sheets exporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus Service Account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME
// (default "Subscriptions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Subscriptions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, inline JSON taking precedence over a credentials file.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportSnapshot replaces the user's rows in the sheet with the current
// subscription list. The sheet holds one row per subscription with a
// header row; rows for other users are preserved.
func (c *Client) ExportSnapshot(ctx context.Context, userID string, subs []core.Subscription) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:J", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}

	rows := [][]any{headerRow()}
	for _, existing := range resp.Values {
		if len(existing) == 0 {
			continue
		}
		owner, _ := existing[0].(string)
		if owner == "" || owner == "userId" || owner == userID {
			continue
		}
		rows = append(rows, existing)
	}
	for _, s := range subs {
		rows = append(rows, subscriptionRow(s))
	}

	clear := gsheet.ClearValuesRequest{}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &clear).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}

	vr := &gsheet.ValueRange{Values: rows}
	writeRange := fmt.Sprintf("%s!A1", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "exported subscription snapshot",
		"user_id", userID, "rows", len(subs))
	return nil
}

func headerRow() []any {
	return []any{"userId", "id", "name", "cost", "currency", "costInINR", "billingCycle", "renewalDate", "category", "status"}
}

func subscriptionRow(s core.Subscription) []any {
	renewal := ""
	if s.RenewalDate != nil {
		renewal = s.RenewalDate.String()
	}
	return []any{
		s.UserID,
		s.ID,
		s.Name,
		s.Cost.StringFixed(2),
		string(s.Currency),
		s.CostInINR.StringFixed(2),
		string(s.BillingCycle),
		renewal,
		string(s.Category),
		string(s.Status),
	}
}
