// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take interfaces (repository.AuditRepository, analysis.Analyzer,
// SourceAcquirer), never concrete types, so tests can hand them fakes and
// main can swap SQLite for Postgres without touching this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/contract-auditor/internal/analysis"
	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/extract"
	"github.com/sakif/contract-auditor/internal/model"
	"github.com/sakif/contract-auditor/internal/repository"
	"github.com/sakif/contract-auditor/internal/source"
)

// MaxContractNameLength is measured in characters.
const MaxContractNameLength = 200

// Stage names a step of the audit pipeline. A submission moves through them
// in order; the first failure stops it.
type Stage string

const (
	StageValidating Stage = "validating"
	StageAcquiring  Stage = "acquiring"
	StageAnalyzing  Stage = "analyzing"
	StageExtracting Stage = "extracting"
	StagePersisting Stage = "persisting"
)

// StageError records where a submission failed. errors.Is and errors.As see
// straight through it to the underlying apperror.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("audit %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// SourceAcquirer resolves the contract text for a submission.
// *source.Acquirer is the production implementation.
type SourceAcquirer interface {
	Acquire(ctx context.Context, req source.Request) (string, error)
}

// SubmitRequest is one audit submission as received from the client.
type SubmitRequest struct {
	ContractName string
	SolidityCode string
	GitHubURL    string
}

// AuditService runs the audit pipeline and serves the audit history.
type AuditService struct {
	repo     repository.AuditRepository
	acquirer SourceAcquirer
	analyzer analysis.Analyzer
	logger   *slog.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(
	repo repository.AuditRepository,
	acquirer SourceAcquirer,
	analyzer analysis.Analyzer,
	logger *slog.Logger,
) *AuditService {
	return &AuditService{
		repo:     repo,
		acquirer: acquirer,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Submit runs one submission end to end and returns the saved audit.
//
// PIPELINE:
//
//	validating → acquiring → analyzing → extracting → persisting → done
//
// Nothing is written unless every earlier stage succeeded, so a failed
// submission leaves no record. Errors come back wrapped in *StageError.
//
// CANCELLATION:
// The pipeline runs on context.WithoutCancel(ctx). If the client hangs up
// halfway through a slow completion, the analysis still finishes and the
// audit is still saved; the user finds it in their history. Request-scoped
// values (request ID, etc.) are kept.
func (s *AuditService) Submit(ctx context.Context, owner model.Identity, req SubmitRequest) (*model.Audit, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	log := s.logger.With(
		slog.String("userID", owner.UserID),
		slog.String("contract", req.ContractName),
	)

	// === VALIDATING ===
	// Runs before any network call.
	name := strings.TrimSpace(req.ContractName)
	if name == "" {
		return nil, s.fail(log, StageValidating, apperror.MissingContractName())
	}
	if utf8.RuneCountInString(name) > MaxContractNameLength {
		return nil, s.fail(log, StageValidating, apperror.ValidationFailed("contract_name",
			fmt.Sprintf("contract name must be %d characters or fewer", MaxContractNameLength)))
	}
	if owner.UserID == "" {
		return nil, s.fail(log, StageValidating, apperror.Unauthorized())
	}

	// === ACQUIRING ===
	log.Debug("acquiring source", slog.Bool("inline", req.SolidityCode != ""))
	code, err := s.acquirer.Acquire(ctx, source.Request{
		ContractName: name,
		SolidityCode: req.SolidityCode,
		GitHubURL:    req.GitHubURL,
	})
	if err != nil {
		return nil, s.fail(log, StageAcquiring, err)
	}

	// === ANALYZING ===
	log.Debug("requesting analysis", slog.Int("sourceBytes", len(code)))
	result, err := s.analyzer.Analyze(ctx, code)
	if err != nil {
		if !errors.Is(err, apperror.ErrAnalysisService) {
			err = apperror.AnalysisFailed(err)
		}
		return nil, s.fail(log, StageAnalyzing, err)
	}
	if strings.TrimSpace(result) == "" {
		return nil, s.fail(log, StageAnalyzing, apperror.AnalysisFailed(errors.New("empty analysis result")))
	}

	// === EXTRACTING ===
	// Never fails: no fenced block simply means no patch.
	var patched *string
	if p, ok := extract.Patch(result); ok {
		patched = &p
	}
	log.Debug("extracted patch", slog.Bool("hasPatch", patched != nil))

	// === PERSISTING ===
	audit := &model.Audit{
		UserID:       owner.UserID,
		ContractName: name,
		SolidityCode: code,
		AuditResult:  result,
		PatchedCode:  patched,
	}
	// The URL is only recorded when it was actually the source.
	if req.SolidityCode == "" {
		audit.GitHubURL = strings.TrimSpace(req.GitHubURL)
	}
	if err := s.repo.CreateAudit(ctx, audit); err != nil {
		return nil, s.fail(log, StagePersisting, apperror.Persistence(err))
	}

	log.Info("audit completed",
		slog.String("auditID", audit.ID),
		slog.Bool("hasPatch", audit.HasPatch()),
		slog.Duration("duration", time.Since(start)),
	)
	return audit, nil
}

// List returns the caller's audits, newest first. Never nil.
func (s *AuditService) List(ctx context.Context, userID string) ([]model.Audit, error) {
	audits, err := s.repo.ListAuditsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/audit: listing audits for %s: %w", userID, err)
	}
	if audits == nil {
		audits = []model.Audit{}
	}
	return audits, nil
}

// Get returns one of the caller's audits. Other users' audits are NotFound.
func (s *AuditService) Get(ctx context.Context, userID, id string) (*model.Audit, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "audit ID is required")
	}
	audit, err := s.repo.GetAuditByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("service/audit: getting audit %s: %w", id, err)
	}
	return audit, nil
}

func (s *AuditService) fail(log *slog.Logger, stage Stage, err error) error {
	level := slog.LevelWarn
	if stage == StagePersisting || stage == StageAnalyzing {
		level = slog.LevelError
	}
	log.Log(context.Background(), level, "audit failed",
		slog.String("stage", string(stage)),
		slog.String("error", err.Error()),
	)
	return &StageError{Stage: stage, Err: err}
}
