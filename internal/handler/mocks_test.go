package handler_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/sakif/contract-auditor/internal/model"
	"github.com/sakif/contract-auditor/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAuth implements handler.Authenticator and records its inputs.
type MockAuth struct {
	GotUsername string
	GotPassword string

	User   *model.User
	Result *service.LoginResult
	Err    error
}

func (m *MockAuth) Register(ctx context.Context, username, password string) (*model.User, error) {
	m.GotUsername, m.GotPassword = username, password
	if m.Err != nil {
		return nil, m.Err
	}
	return m.User, nil
}

func (m *MockAuth) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	m.GotUsername, m.GotPassword = username, password
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

func (m *MockAuth) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.User, nil
}

// MockAuditor implements handler.Auditor.
type MockAuditor struct {
	GotOwner  model.Identity
	GotSubmit service.SubmitRequest
	GotID     string

	Audit  *model.Audit
	Audits []model.Audit
	Err    error
}

func (m *MockAuditor) Submit(ctx context.Context, owner model.Identity, req service.SubmitRequest) (*model.Audit, error) {
	m.GotOwner, m.GotSubmit = owner, req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Audit, nil
}

func (m *MockAuditor) List(ctx context.Context, userID string) ([]model.Audit, error) {
	m.GotOwner = model.Identity{UserID: userID}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Audits, nil
}

func (m *MockAuditor) Get(ctx context.Context, userID, id string) (*model.Audit, error) {
	m.GotOwner = model.Identity{UserID: userID}
	m.GotID = id
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Audit, nil
}

// MockFeed implements handler.IncidentFeed.
type MockFeed struct {
	Incidents []model.Incident
	Err       error
}

func (m *MockFeed) Recent(ctx context.Context) ([]model.Incident, error) {
	return m.Incidents, m.Err
}
