package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/export"
)

type committedSessionFeeder interface {
	ListCommitted(ctx context.Context) ([]models.Session, error)
}

type cohortReader interface {
	FindByID(ctx context.Context, id string) (*models.Cohort, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(fileName, relPath string) (string, time.Time, error)
	Parse(token string) (fileName, relPath string, expiresAt time.Time, err error)
}

// ExportService renders committed timetables as CSV or PDF files and hands
// out signed download links.
type ExportService struct {
	sessions committedSessionFeeder
	cohorts  cohortReader
	teachers teacherRoster
	rooms    roomInventory
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	files    exportFileStore
	signer   downloadSigner
	logger   *zap.Logger
	settings config.ExportsConfig
	planner  config.PlannerConfig
}

// NewExportService wires export dependencies.
func NewExportService(
	sessions committedSessionFeeder,
	cohorts cohortReader,
	teachers teacherRoster,
	rooms roomInventory,
	files exportFileStore,
	signer downloadSigner,
	logger *zap.Logger,
	settings config.ExportsConfig,
	planner config.PlannerConfig,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		cohorts:  cohorts,
		teachers: teachers,
		rooms:    rooms,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		files:    files,
		signer:   signer,
		logger:   logger,
		settings: settings,
		planner:  planner,
	}
}

// Export renders the committed timetable into the requested format and
// returns a signed download link.
func (s *ExportService) Export(ctx context.Context, q dto.ExportQuery) (*dto.ExportResponse, error) {
	if !s.settings.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}

	format := q.Format
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	sessions, err := s.sessions.ListCommitted(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed sessions")
	}
	if q.CohortID != "" {
		filtered := sessions[:0]
		for _, session := range sessions {
			if session.CohortID == q.CohortID {
				filtered = append(filtered, session)
			}
		}
		sessions = filtered
	}
	if len(sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no committed sessions to export")
	}

	grids, err := s.buildGrids(ctx, sessions)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case "pdf":
		payload, err = s.pdf.Render(grids, s.settings.Title)
	default:
		payload, err = s.csv.Render(grids)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	fileName := fmt.Sprintf("timetable-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	relPath := path.Join(time.Now().UTC().Format("2006-01"), fileName)
	if _, err := s.files.Save(relPath, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable export")
	}

	token, expiresAt, err := s.signer.Generate(fileName, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("timetable exported",
		zap.String("format", format),
		zap.String("file", relPath),
		zap.Int("sessions", len(sessions)),
	)

	return &dto.ExportResponse{
		FileName:    fileName,
		Format:      format,
		DownloadURL: "/exports/download?token=" + token,
		ExpiresAt:   expiresAt,
	}, nil
}

// Download resolves a signed token into the stored file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	fileName, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, fileName, nil
}

// Cleanup removes export files past their retention window.
func (s *ExportService) Cleanup() {
	if s.settings.RetentionTTL <= 0 {
		return
	}
	deleted, err := s.files.CleanupOlderThan(s.settings.RetentionTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export files cleaned up", zap.Int("deleted", len(deleted)))
	}
}

func (s *ExportService) buildGrids(ctx context.Context, sessions []models.Session) ([]export.Grid, error) {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, t := range teachers {
		teacherNames[t.ID] = t.FullName
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	roomNames := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomNames[r.ID] = r.Name
	}

	byCohort := make(map[string][]models.Session)
	for _, session := range sessions {
		byCohort[session.CohortID] = append(byCohort[session.CohortID], session)
	}

	cohortIDs := make([]string, 0, len(byCohort))
	for id := range byCohort {
		cohortIDs = append(cohortIDs, id)
	}
	sort.Strings(cohortIDs)

	periods := make([]int, 0, s.planner.PeriodsPerDay)
	for p := 1; p <= s.planner.PeriodsPerDay; p++ {
		periods = append(periods, p)
	}

	grids := make([]export.Grid, 0, len(byCohort))
	for _, cohortID := range cohortIDs {
		title := cohortID
		if cohort, err := s.cohorts.FindByID(ctx, cohortID); err == nil {
			title = cohort.Name
		}

		cells := make(map[export.CellKey]string)
		for _, session := range byCohort[cohortID] {
			teacher := teacherNames[session.TeacherID]
			if teacher == "" {
				teacher = session.TeacherID
			}
			room := roomNames[session.RoomID]
			if room == "" {
				room = session.RoomID
			}
			text := fmt.Sprintf("%s / %s / %s", session.SubjectCode, teacher, room)
			for _, period := range session.Periods() {
				cells[export.CellKey{Day: session.Day, Period: period}] = text
			}
		}

		grids = append(grids, export.Grid{
			Title:   title,
			Days:    s.planner.Days,
			Periods: periods,
			Cells:   cells,
		})
	}
	return grids, nil
}
