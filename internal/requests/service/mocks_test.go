package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"imovia/internal/notify"
	"imovia/pkg/config"
	mongotx "imovia/pkg/db/mongo"
	"imovia/pkg/logger"
	"imovia/pkg/model"
)

// Mock repositories for testing

type mockVisitRepository struct {
	createFunc        func(ctx context.Context, req *model.VisitRequest) error
	findByIDFunc      func(ctx context.Context, id string) (*model.VisitRequest, error)
	findByClientFunc  func(ctx context.Context, clientID string, limit int, offset int64) ([]*model.VisitRequest, error)
	countByClientFunc func(ctx context.Context, clientID string) (int64, error)
	countLiveFunc     func(ctx context.Context, clientID, propertyID string) (int64, error)
	applyDecisionFunc func(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error)
	deleteFunc        func(ctx context.Context, id, clientID string) (bool, error)
}

func (m *mockVisitRepository) Create(ctx context.Context, req *model.VisitRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = "507f1f77bcf86cd799439099"
	return nil
}

func (m *mockVisitRepository) FindByID(ctx context.Context, id string) (*model.VisitRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockVisitRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.VisitRequest, error) {
	if m.findByClientFunc != nil {
		return m.findByClientFunc(ctx, clientID, limit, offset)
	}
	return []*model.VisitRequest{}, nil
}

func (m *mockVisitRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	if m.countByClientFunc != nil {
		return m.countByClientFunc(ctx, clientID)
	}
	return 0, nil
}

func (m *mockVisitRepository) CountLive(ctx context.Context, clientID, propertyID string) (int64, error) {
	if m.countLiveFunc != nil {
		return m.countLiveFunc(ctx, clientID, propertyID)
	}
	return 0, nil
}

func (m *mockVisitRepository) ApplyDecision(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error) {
	if m.applyDecisionFunc != nil {
		return m.applyDecisionFunc(ctx, id, from, decision)
	}
	return true, nil
}

func (m *mockVisitRepository) DeleteOwnPending(ctx context.Context, id, clientID string) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, clientID)
	}
	return true, nil
}

func (m *mockVisitRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	var sessCtx mongo.SessionContext
	return fn(sessCtx)
}

type mockReservationRepository struct {
	createFunc          func(ctx context.Context, req *model.ReservationRequest) error
	findByIDFunc        func(ctx context.Context, id string) (*model.ReservationRequest, error)
	findByClientFunc    func(ctx context.Context, clientID string, limit int, offset int64) ([]*model.ReservationRequest, error)
	countByClientFunc   func(ctx context.Context, clientID string) (int64, error)
	countLiveFunc       func(ctx context.Context, clientID, unitID string) (int64, error)
	applyTransitionFunc func(ctx context.Context, id string, from []model.ReservationStatus, decision *model.ReservationDecision) (bool, error)
	deleteFunc          func(ctx context.Context, id, clientID string) (bool, error)
}

func (m *mockReservationRepository) Create(ctx context.Context, req *model.ReservationRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = "507f1f77bcf86cd799439098"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.ReservationRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.ReservationRequest, error) {
	if m.findByClientFunc != nil {
		return m.findByClientFunc(ctx, clientID, limit, offset)
	}
	return []*model.ReservationRequest{}, nil
}

func (m *mockReservationRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	if m.countByClientFunc != nil {
		return m.countByClientFunc(ctx, clientID)
	}
	return 0, nil
}

func (m *mockReservationRepository) CountLive(ctx context.Context, clientID, unitID string) (int64, error) {
	if m.countLiveFunc != nil {
		return m.countLiveFunc(ctx, clientID, unitID)
	}
	return 0, nil
}

func (m *mockReservationRepository) ApplyTransition(ctx context.Context, id string, from []model.ReservationStatus, decision *model.ReservationDecision) (bool, error) {
	if m.applyTransitionFunc != nil {
		return m.applyTransitionFunc(ctx, id, from, decision)
	}
	return true, nil
}

func (m *mockReservationRepository) DeleteOwnPending(ctx context.Context, id, clientID string) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, clientID)
	}
	return true, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	var sessCtx mongo.SessionContext
	return fn(sessCtx)
}

type mockUnitRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Unit, error)
	claimFunc    func(ctx context.Context, id string) (bool, error)
}

func (m *mockUnitRepository) FindByID(ctx context.Context, id string) (*model.Unit, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Unit{ID: id, IsAvailable: true}, nil
}

func (m *mockUnitRepository) Claim(ctx context.Context, id string) (bool, error) {
	if m.claimFunc != nil {
		return m.claimFunc(ctx, id)
	}
	return true, nil
}

type mockAgentRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Agent, error)
}

func (m *mockAgentRepository) FindByID(ctx context.Context, id string) (*model.Agent, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Agent{ID: id, Active: true}, nil
}

// recordingDispatcher captures dispatched events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(event notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) Close() error { return nil }

func (d *recordingDispatcher) Events() []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Event, len(d.events))
	copy(out, d.events)
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
