package submission

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formsuite/pkg/model"
)

var exportBaseColumns = []string{"id", "status", "createdAt", "submittedBy", "name", "email", "flagged"}

// Export writes the form's submissions matching query to w. Stores that
// implement Exporter stream their own file; otherwise a CSV is assembled
// from listing pages, one column per value-bearing field in form order.
func (m *Manager) Export(ctx context.Context, form model.Form, query ListQuery, w io.Writer) error {
	query, err := query.Normalize()
	if err != nil {
		return err
	}
	if exporter, ok := m.store.(Exporter); ok {
		rc, err := exporter.ExportSubmissions(ctx, form.ID, query.Params())
		if err != nil {
			return fmt.Errorf("submission: export %q: %w", form.ID, err)
		}
		defer rc.Close()
		if _, err := io.Copy(w, rc); err != nil {
			return fmt.Errorf("submission: export %q: %w", form.ID, err)
		}
		return nil
	}

	fields := m.exportFields(form)
	writer := csv.NewWriter(w)
	header := append([]string(nil), exportBaseColumns...)
	for _, field := range fields {
		label := strings.TrimSpace(field.Label)
		if label == "" {
			label = field.ID
		}
		header = append(header, label)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("submission: export %q: %w", form.ID, err)
	}

	query.Page = 1
	query.Limit = MaxLimit
	for {
		result, err := m.store.ListSubmissions(ctx, form.ID, query.Params())
		if err != nil {
			return fmt.Errorf("submission: export %q: %w", form.ID, err)
		}
		for _, sub := range result.Items {
			if err := writer.Write(exportRow(sub, fields)); err != nil {
				return fmt.Errorf("submission: export %q: %w", form.ID, err)
			}
		}
		page := NewPage(result, query.Page, query.Limit)
		if !page.HasNext || len(result.Items) == 0 {
			break
		}
		query.Page++
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("submission: export %q: %w", form.ID, err)
	}
	return nil
}

func (m *Manager) exportFields(form model.Form) []model.Field {
	out := make([]model.Field, 0, len(form.Fields))
	for _, field := range form.Fields {
		desc, err := m.types.Describe(field.Type)
		if err != nil || desc.Presentational {
			continue
		}
		out = append(out, field)
	}
	return out
}

func exportRow(sub model.Submission, fields []model.Field) []string {
	var name, email string
	if sub.SubmitterInfo != nil {
		name, email = sub.SubmitterInfo.Name, sub.SubmitterInfo.Email
	}
	row := []string{
		sub.ID,
		string(sub.Status),
		sub.CreatedAt.UTC().Format(time.RFC3339),
		sub.SubmittedBy,
		name,
		email,
		strconv.FormatBool(sub.Flagged),
	}
	for _, field := range fields {
		row = append(row, exportCell(sub.Data[field.ID]))
	}
	return row
}

// exportCell flattens a stored value: lists are joined with "; ", file
// references become their URL.
func exportCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, "; ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, exportCell(item))
		}
		return strings.Join(parts, "; ")
	case model.FileReference:
		return v.URL
	case *model.FileReference:
		if v == nil {
			return ""
		}
		return v.URL
	case map[string]any:
		if url, ok := v["url"].(string); ok {
			return url
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+"="+exportCell(v[key]))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(v)
	}
}
