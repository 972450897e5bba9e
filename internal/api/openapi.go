package api

import (
	"net/http"

	"github.com/casefold/tabular/internal/config"
	"github.com/casefold/tabular/pkg/openapi"
)

// buildSpec constructs the OpenAPI document for the API module.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(schemas())

	addReviewPaths(spec)
	addCellPaths(spec)
	addCandidatePaths(spec)
	addQueuePaths(spec)
	addTemplatePaths(spec)

	return spec
}

func schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Review": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"case_id":        {Type: "string", Format: "uuid"},
				"name":           {Type: "string"},
				"status":         {Type: "string", Enum: []any{"draft", "processing", "active", "archived"}},
				"document_count": {Type: "integer"},
				"column_count":   {Type: "integer"},
				"created_at":     {Type: "string", Format: "date-time"},
				"updated_at":     {Type: "string", Format: "date-time"},
			},
		},
		"CreateReview": {
			Type:     "object",
			Required: []string{"case_id", "name"},
			Properties: map[string]*openapi.Schema{
				"case_id": {Type: "string", Format: "uuid"},
				"name":    {Type: "string"},
			},
		},
		"Column": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            {Type: "string", Format: "uuid"},
				"review_id":     {Type: "string", Format: "uuid"},
				"label":         {Type: "string"},
				"type":          {Type: "string"},
				"prompt":        {Type: "string"},
				"is_critical":   {Type: "boolean"},
				"always_review": {Type: "boolean"},
				"position":      {Type: "integer"},
			},
		},
		"AddColumn": {
			Type:     "object",
			Required: []string{"label", "type"},
			Properties: map[string]*openapi.Schema{
				"label":         {Type: "string"},
				"type":          {Type: "string"},
				"prompt":        {Type: "string"},
				"is_critical":   {Type: "boolean"},
				"always_review": {Type: "boolean"},
			},
		},
		"AddDocument": {
			Type:     "object",
			Required: []string{"file_id"},
			Properties: map[string]*openapi.Schema{
				"file_id": {Type: "string", Format: "uuid"},
			},
		},
		"Cell": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"review_id":                 {Type: "string", Format: "uuid"},
				"file_id":                   {Type: "string", Format: "uuid"},
				"column_id":                 {Type: "string", Format: "uuid"},
				"status":                    {Type: "string", Enum: []any{"pending", "processing", "completed", "reviewed"}},
				"is_locked":                 {Type: "boolean"},
				"resolved_value":            {Type: "string"},
				"resolved_normalized_value": {Type: "string"},
				"resolution_method":         {Type: "string", Enum: []any{"none", "auto", "select", "merge", "n_a"}},
				"candidate_count":           {Type: "integer"},
				"comment_count":             {Type: "integer"},
				"unresolved_comment_count":  {Type: "integer"},
				"reviewed_by":               {Type: "string"},
				"reviewed_at":               {Type: "string", Format: "date-time"},
			},
		},
		"ResolveCell": {
			Type:     "object",
			Required: []string{"file_id", "column_id", "method", "resolved_by"},
			Properties: map[string]*openapi.Schema{
				"file_id":         {Type: "string", Format: "uuid"},
				"column_id":       {Type: "string", Format: "uuid"},
				"method":          {Type: "string", Enum: []any{"select", "merge", "n_a"}},
				"candidate_index": {Type: "integer"},
				"merged_value":    {Type: "string"},
				"set_version":     {Type: "integer", Description: "Candidate set version the resolution was made against"},
				"resolved_by":     {Type: "string"},
			},
		},
		"Candidate": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string", Format: "uuid"},
				"value":             {Type: "string"},
				"normalized_value":  {Type: "string"},
				"confidence":        {Type: "number"},
				"verbatim_quote":    {Type: "string"},
				"source_page":       {Type: "integer"},
				"source_section":    {Type: "string"},
				"extraction_method": {Type: "string"},
				"reasoning":         {Type: "string"},
				"created_at":        {Type: "string", Format: "date-time"},
			},
		},
		"CandidateSet": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"candidates":  {Type: "array", Items: openapi.SchemaRef("Candidate")},
				"set_version": {Type: "integer"},
			},
		},
		"AppendCandidates": {
			Type:     "object",
			Required: []string{"candidates"},
			Properties: map[string]*openapi.Schema{
				"candidates": {
					Type: "array",
					Items: &openapi.Schema{
						Type:     "object",
						Required: []string{"value", "confidence", "extraction_method"},
						Properties: map[string]*openapi.Schema{
							"value":             {Type: "string"},
							"confidence":        {Type: "number", Minimum: float64Ptr(0), Maximum: float64Ptr(1)},
							"verbatim_quote":    {Type: "string"},
							"source_page":       {Type: "integer"},
							"source_section":    {Type: "string"},
							"extraction_method": {Type: "string"},
							"reasoning":         {Type: "string"},
						},
					},
				},
			},
		},
		"QueueItem": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"file_id":     {Type: "string", Format: "uuid"},
				"column_id":   {Type: "string", Format: "uuid"},
				"priority":    {Type: "integer", Minimum: float64Ptr(1), Maximum: float64Ptr(3)},
				"reason":      {Type: "string"},
				"is_reviewed": {Type: "boolean"},
			},
		},
		"Template": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string"},
				"category":     {Type: "string"},
				"featured":     {Type: "boolean"},
				"description":  {Type: "string"},
				"column_count": {Type: "integer"},
			},
		},
		"ApplyTemplate": {
			Type:     "object",
			Required: []string{"review_id", "template_id"},
			Properties: map[string]*openapi.Schema{
				"review_id":   {Type: "string", Format: "uuid"},
				"template_id": {Type: "string", Format: "uuid"},
			},
		},
	}
}

func float64Ptr(v float64) *float64 { return &v }

func cellParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.PathParam("id", "Review identifier"),
		openapi.PathParam("fileID", "Document (case file) identifier"),
		openapi.PathParam("columnID", "Column identifier"),
	}
}

func addReviewPaths(spec *openapi.Spec) {
	spec.Paths["/reviews"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List reviews",
			Tags:    []string{"reviews"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("case_id", "string", "Filter by case", false),
				openapi.QueryParam("status", "string", "Filter by review status", false),
				openapi.QueryParam("search", "string", "Search review names", false),
			},
			Responses: map[int]*openapi.Response{
				http.StatusOK: openapi.ResponseJSON("Paginated reviews", "Review"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a review",
			Tags:        []string{"reviews"},
			RequestBody: openapi.RequestBodyJSON("CreateReview", true),
			Responses: map[int]*openapi.Response{
				http.StatusCreated:    openapi.ResponseJSON("Created review", "Review"),
				http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/reviews/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a review",
			Tags:       []string{"reviews"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK:       openapi.ResponseJSON("Review", "Review"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/reviews/{id}/columns"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List review columns",
			Tags:       []string{"reviews"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK: openapi.ResponseJSON("Columns", "Column"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Add a column",
			Tags:        []string{"reviews"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			RequestBody: openapi.RequestBodyJSON("AddColumn", true),
			Responses: map[int]*openapi.Response{
				http.StatusCreated:  openapi.ResponseJSON("Created column", "Column"),
				http.StatusConflict: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/reviews/{id}/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List review documents",
			Tags:       []string{"reviews"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK: {Description: "Review documents"},
			},
		},
		Post: &openapi.Operation{
			Summary:     "Attach a case file",
			Tags:        []string{"reviews"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			RequestBody: openapi.RequestBodyJSON("AddDocument", true),
			Responses: map[int]*openapi.Response{
				http.StatusCreated:  {Description: "Attached document"},
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
				http.StatusConflict: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/reviews/{id}/documents/{fileID}"] = &openapi.PathItem{
		Delete: &openapi.Operation{
			Summary: "Detach a document",
			Tags:    []string{"reviews"},
			Parameters: []*openapi.Parameter{
				openapi.PathParam("id", "Review identifier"),
				openapi.PathParam("fileID", "Document (case file) identifier"),
			},
			Responses: map[int]*openapi.Response{
				http.StatusNoContent: {Description: "Document detached"},
				http.StatusNotFound:  openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/reviews/{id}/available-files"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List attachable case files",
			Tags:       []string{"reviews"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK: {Description: "Case files not yet in the review"},
			},
		},
	}

	spec.Paths["/reviews/{id}/files/{fileID}/content"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Stream document content",
			Tags:    []string{"reviews"},
			Parameters: []*openapi.Parameter{
				openapi.PathParam("id", "Review identifier"),
				openapi.PathParam("fileID", "Document (case file) identifier"),
			},
			Responses: map[int]*openapi.Response{
				http.StatusOK:       {Description: "Document bytes"},
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addCellPaths(spec *openapi.Spec) {
	spec.Paths["/reviews/{id}/cells"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List grid cells",
			Tags:       []string{"cells"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK: openapi.ResponseJSON("Cells in grid order", "Cell"),
			},
		},
	}

	spec.Paths["/reviews/{id}/cells/{fileID}/{columnID}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a cell",
			Tags:       []string{"cells"},
			Parameters: cellParams(),
			Responses: map[int]*openapi.Response{
				http.StatusOK:       openapi.ResponseJSON("Cell", "Cell"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/reviews/{id}/cells/resolve"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Resolve a cell",
			Description: "Applies a human resolution under a distributed cell lock. Rejected when another reviewer holds the cell or the candidate set has changed since the given set_version.",
			Tags:        []string{"cells"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			RequestBody: openapi.RequestBodyJSON("ResolveCell", true),
			Responses: map[int]*openapi.Response{
				http.StatusOK:       openapi.ResponseJSON("Resolved cell", "Cell"),
				http.StatusConflict: openapi.ResponseRef("Conflict"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addCandidatePaths(spec *openapi.Spec) {
	spec.Paths["/reviews/{id}/cells/{fileID}/{columnID}/candidates"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List cell candidates",
			Tags:       []string{"candidates"},
			Parameters: cellParams(),
			Responses: map[int]*openapi.Response{
				http.StatusOK:       openapi.ResponseJSON("Candidates with set version", "CandidateSet"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Append extraction candidates",
			Description: "Stores one extraction run's batch and settles the cell: auto-resolve, restore a surviving human resolution, or complete and queue.",
			Tags:        []string{"candidates"},
			Parameters:  cellParams(),
			RequestBody: openapi.RequestBodyJSON("AppendCandidates", true),
			Responses: map[int]*openapi.Response{
				http.StatusOK:       {Description: "Append result"},
				http.StatusConflict: openapi.ResponseRef("Conflict"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/reviews/{id}/cells/{fileID}/{columnID}/begin-extraction"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Begin extraction for a cell",
			Tags:       []string{"candidates"},
			Parameters: cellParams(),
			Responses: map[int]*openapi.Response{
				http.StatusOK:       {Description: "Cell marked processing"},
				http.StatusConflict: openapi.ResponseRef("Conflict"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addQueuePaths(spec *openapi.Spec) {
	spec.Paths["/reviews/{id}/queue"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Get the review queue",
			Tags:    []string{"queue"},
			Parameters: []*openapi.Parameter{
				openapi.PathParam("id", "Review identifier"),
				openapi.QueryParam("include_reviewed", "boolean", "Keep acknowledged items in the listing", false),
			},
			Responses: map[int]*openapi.Response{
				http.StatusOK:       openapi.ResponseJSON("Queue items with stats", "QueueItem"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/reviews/{id}/queue/rebuild"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Rebuild the review queue",
			Tags:       []string{"queue"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Review identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK:       {Description: "Rebuild summary with stats of the staged queue"},
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/reviews/{id}/queue/{itemID}/mark-reviewed"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary: "Acknowledge a queue item",
			Tags:    []string{"queue"},
			Parameters: []*openapi.Parameter{
				openapi.PathParam("id", "Review identifier"),
				openapi.PathParam("itemID", "Queue item identifier"),
			},
			Responses: map[int]*openapi.Response{
				http.StatusOK:       {Description: "Item acknowledged and cell settled as reviewed"},
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
				http.StatusConflict: openapi.ResponseRef("Conflict"),
			},
		},
	}
}

func addTemplatePaths(spec *openapi.Spec) {
	spec.Paths["/templates"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List templates",
			Tags:    []string{"templates"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("category", "string", "Filter by category", false),
				openapi.QueryParam("featured", "boolean", "Filter by featured flag", false),
				openapi.QueryParam("search", "string", "Search template names and descriptions", false),
			},
			Responses: map[int]*openapi.Response{
				http.StatusOK: openapi.ResponseJSON("Templates", "Template"),
			},
		},
	}

	spec.Paths["/templates/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a template with columns",
			Tags:       []string{"templates"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Template identifier")},
			Responses: map[int]*openapi.Response{
				http.StatusOK:       openapi.ResponseJSON("Template detail", "Template"),
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/templates/apply"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Apply a template to a review",
			Tags:        []string{"templates"},
			RequestBody: openapi.RequestBodyJSON("ApplyTemplate", true),
			Responses: map[int]*openapi.Response{
				http.StatusOK:       {Description: "Application summary"},
				http.StatusNotFound: openapi.ResponseRef("NotFound"),
			},
		},
	}
}
