package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookmate/bookmate-server/internal/auth"
	"github.com/bookmate/bookmate-server/internal/config"
	"github.com/bookmate/bookmate-server/internal/export"
	"github.com/bookmate/bookmate-server/internal/logger"
	"github.com/bookmate/bookmate-server/internal/recommend"
	"github.com/bookmate/bookmate-server/internal/service"
)

// ProvideAuthService provides registration, login and token checks.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle, tokenService, log.Logger), nil
}

// ProvideBookService provides the book lifecycle service. Writes are
// mirrored into the search index.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle, indexHandle.Index, log.Logger), nil
}

// ProvideQueryService provides status, genre and rating queries.
func ProvideQueryService(i do.Injector) (*service.QueryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewQueryService(storeHandle, log.Logger), nil
}

// ProvideDashboardService provides dashboard statistics.
func ProvideDashboardService(i do.Injector) (*service.DashboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDashboardService(storeHandle, log.Logger), nil
}

// ProvideExportService provides CSV export. Uploads are wired only when a
// bucket is configured.
func ProvideExportService(i do.Injector) (*service.ExportService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.ExportUploadsEnabled() {
		log.Info("CSV export uploads disabled (no bucket configured)")
		return service.NewExportService(storeHandle, nil, log.Logger), nil
	}

	uploader, err := export.NewS3Uploader(context.Background(), cfg.AWS, cfg.Export)
	if err != nil {
		return nil, err
	}
	log.Info("CSV export uploads enabled", "bucket", cfg.Export.Bucket, "prefix", cfg.Export.Prefix)
	return service.NewExportService(storeHandle, uploader, log.Logger), nil
}

// ProvideRecommendClient provides the recommendation HTTP client. The
// client shuts itself down through the injector.
func ProvideRecommendClient(i do.Injector) (*recommend.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := recommend.New(recommend.Options{
		URL:     cfg.Recommendation.URL,
		Timeout: cfg.Recommendation.Timeout,
		Logger:  log.Logger,
	})
	if err != nil {
		return nil, err
	}
	if !client.Enabled() {
		log.Info("Recommendations disabled (no endpoint configured)")
	}
	return client, nil
}

// ProvideRecommendationService provides reading recommendations.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*recommend.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecommendationService(storeHandle, client, log.Logger), nil
}
