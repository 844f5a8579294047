package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// buildArchive assembles a zip holding the JSON payload for the export kind
// plus a short PDF summary.
func (s *Service) buildArchive(ctx context.Context, e Export) ([]byte, error) {
	payload, summary, err := s.collect(ctx, e)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	pdf, err := summaryPDF(e, summary)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, file := range []struct {
		name string
		body []byte
	}{
		{"data.json", data},
		{"summary.pdf", pdf},
	} {
		w, err := zw.Create(file.name)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", file.name, err)
		}
		if _, err := w.Write(file.body); err != nil {
			return nil, fmt.Errorf("archive %s: %w", file.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) collect(ctx context.Context, e Export) (any, []string, error) {
	switch e.Kind {
	case KindAccount:
		user, err := s.accounts.GetUser(ctx, e.UserID)
		if err != nil {
			return nil, nil, err
		}
		return user, []string{
			fmt.Sprintf("Email: %s", user.Email),
			fmt.Sprintf("Account created: %s", user.CreatedAt.Format("2006-01-02")),
			fmt.Sprintf("Status: %s", user.Status),
		}, nil

	case KindConsents:
		history, err := s.consents.History(ctx, e.UserID)
		if err != nil {
			return nil, nil, err
		}
		return history, []string{
			fmt.Sprintf("Consent records: %d", len(history)),
		}, nil

	case KindMoodHistory:
		entries, err := s.checkins.ListAll(ctx, e.UserID)
		if err != nil {
			return nil, nil, err
		}
		return entries, []string{
			fmt.Sprintf("Mood check-ins: %d", len(entries)),
		}, nil

	case KindSurveyResponses:
		responses, err := s.surveys.ListResponses(ctx, e.UserID)
		if err != nil {
			return nil, nil, err
		}
		return responses, []string{
			fmt.Sprintf("Survey responses: %d", len(responses)),
		}, nil

	default:
		return nil, nil, ErrUnknownKind
	}
}

func summaryPDF(e Export, lines []string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Mindwell Data Export")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Export: %s", e.Kind))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "The full machine-readable record is in data.json inside this archive.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
