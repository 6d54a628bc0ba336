package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/export"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard",
		Summary:     "Reading statistics",
		Description: "Totals, completion, ratings and per-genre, per-status and per-month counts for the caller",
		Tags:        []string{"Dashboard"},
		Security:    bearerSecurity,
	}, s.handleGetDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "downloadExport",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard/export",
		Summary:     "Download CSV export",
		Description: "Returns the caller's books as CSV (title, genre, rating, status, timestamp), oldest first",
		Tags:        []string{"Dashboard"},
		Security:    bearerSecurity,
	}, s.handleDownloadExport)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadExport",
		Method:      http.MethodPost,
		Path:        "/api/v1/dashboard/export",
		Summary:     "Upload CSV export",
		Description: "Stores the CSV export in object storage and returns a time-limited download link",
		Tags:        []string{"Dashboard"},
		Security:    bearerSecurity,
	}, s.handleUploadExport)
}

// DashboardOutput wraps dashboard statistics for Huma.
type DashboardOutput struct {
	Body *domain.DashboardStats
}

// ExportUploadResponse describes a stored export.
type ExportUploadResponse struct {
	Bucket    string    `json:"bucket" doc:"Bucket holding the export"`
	Key       string    `json:"key" doc:"Object key"`
	URL       string    `json:"url" doc:"Presigned download link"`
	ExpiresAt time.Time `json:"expires_at" doc:"When the link stops working"`
}

// ExportUploadOutput wraps the upload response for Huma.
type ExportUploadOutput struct {
	Body ExportUploadResponse
}

func (s *Server) handleGetDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Dashboard.Stats(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &DashboardOutput{Body: stats}, nil
}

func (s *Server) handleDownloadExport(ctx context.Context, _ *struct{}) (*huma.StreamResponse, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.services.Export.CSV(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	filename := "bookmate-" + user.UserID + "-" + s.now().UTC().Format("20060102") + ".csv"
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			ctx.SetHeader("Content-Type", export.ContentType)
			ctx.SetHeader("Content-Disposition", "attachment; filename=\""+filename+"\"")
			ctx.SetHeader("Content-Length", strconv.Itoa(len(data)))
			if _, err := ctx.BodyWriter().Write(data); err != nil {
				s.logger.Warn("export download interrupted", "user_id", user.UserID, "error", err)
			}
		},
	}, nil
}

func (s *Server) handleUploadExport(ctx context.Context, _ *struct{}) (*ExportUploadOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	up, err := s.services.Export.Upload(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &ExportUploadOutput{
		Body: ExportUploadResponse{
			Bucket:    up.Bucket,
			Key:       up.Key,
			URL:       up.URL,
			ExpiresAt: up.ExpiresAt,
		},
	}, nil
}
