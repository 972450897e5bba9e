package reviews

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/casefold/tabular/pkg/formatting"
	"github.com/casefold/tabular/pkg/query"
	"github.com/casefold/tabular/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reviews", "r").
	Project("id", "ID").
	Project("case_id", "CaseID").
	Project("name", "Name").
	Project("status", "Status").
	Project("document_count", "DocumentCount").
	Project("column_count", "ColumnCount").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for review queries.
// Nil fields are ignored.
type Filters struct {
	CaseID *uuid.UUID `json:"case_id,omitempty"`
	Status *string    `json:"status,omitempty"`
	Name   *string    `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CaseID", f.CaseID).
		WhereEquals("Status", f.Status).
		WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("case_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CaseID = &id
		}
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanReview(s repository.Scanner) (Review, error) {
	var r Review
	err := s.Scan(
		&r.ID,
		&r.CaseID,
		&r.Name,
		&r.Status,
		&r.DocumentCount,
		&r.ColumnCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func scanColumn(s repository.Scanner) (Column, error) {
	var c Column
	err := s.Scan(
		&c.ID,
		&c.ReviewID,
		&c.Label,
		&c.Type,
		&c.Prompt,
		&c.IsCritical,
		&c.AlwaysReview,
		&c.Position,
		&c.CreatedAt,
	)
	return c, err
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ReviewID,
		&d.FileID,
		&d.Filename,
		&d.Position,
		&d.AddedAt,
	)
	return d, err
}

func scanCaseFile(s repository.Scanner) (CaseFile, error) {
	var f CaseFile
	err := s.Scan(
		&f.ID,
		&f.CaseID,
		&f.Filename,
		&f.ContentType,
		&f.SizeBytes,
		&f.PageCount,
		&f.StorageKey,
		&f.UploadedAt,
	)
	if err == nil {
		f.SizeLabel = formatting.FormatBytes(f.SizeBytes, 1)
	}
	return f, err
}
