package services

import (
	"context"

	"github.com/SAP-F-2025/assessment-delivery/internal/engine"
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
)

type AttemptService interface {
	Start(ctx context.Context, req *engine.StartAttemptRequest) (*engine.StartAttemptResponse, error)
	SaveAnswer(ctx context.Context, req *engine.SaveAnswerRequest) error
	// Submit is idempotent: a terminal attempt is returned unchanged.
	Submit(ctx context.Context, req *engine.SubmitAttemptRequest, userID string) (*models.TestAttempt, error)
	GetByID(ctx context.Context, attemptID uint, userID string) (*models.TestAttempt, error)
	ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error)
	// HandleTimeout expires an attempt on behalf of the server.
	HandleTimeout(ctx context.Context, attemptID uint) (*models.TestAttempt, error)
}

type CatalogService interface {
	GetAccessibleTests(ctx context.Context, userID string) ([]*models.Test, error)
	GetAccessibleBatteries(ctx context.Context, userID string) ([]*models.Battery, error)
	CanAccessTest(ctx context.Context, userID string, testID uint) (bool, error)
	CanAccessBattery(ctx context.Context, userID string, batteryID uint) (bool, error)

	GetTest(ctx context.Context, testID uint) (*models.Test, error)
	GetBattery(ctx context.Context, batteryID uint) (*models.Battery, error)
	// AttemptQuestions returns the attempt's questions in presentation order.
	AttemptQuestions(ctx context.Context, attempt *models.TestAttempt) ([]models.Question, error)
}

type ExportService interface {
	// AttemptWorkbook renders a terminal attempt as an xlsx file.
	AttemptWorkbook(ctx context.Context, attemptID uint, userID string) ([]byte, string, error)
}

// ServiceManager wires the services for the handlers.
type ServiceManager interface {
	Attempt() AttemptService
	Catalog() CatalogService
	Export() ExportService
}

type serviceManager struct {
	attempt AttemptService
	catalog CatalogService
	export  ExportService
}

func NewServiceManager(attempt AttemptService, catalog CatalogService, export ExportService) ServiceManager {
	return &serviceManager{attempt: attempt, catalog: catalog, export: export}
}

func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Catalog() CatalogService { return m.catalog }
func (m *serviceManager) Export() ExportService   { return m.export }
