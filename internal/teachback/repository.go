package teachback

import (
	"context"

	"github.com/excellere/excellere/internal/mastery"
	"github.com/excellere/excellere/internal/store"
)

// Repository is the persistence the service needs.
type Repository interface {
	GetNode(ctx context.Context, userID, conceptID string) (*mastery.Node, error)
	ListNodes(ctx context.Context, userID, moduleID string) ([]mastery.Node, error)
	SaveNode(ctx context.Context, n *mastery.Node) error

	AppendSession(ctx context.Context, s *store.Session) error
	ListSessions(ctx context.Context, userID, moduleID string) ([]store.Session, error)
	LatestSession(ctx context.Context, userID, conceptID, kind string) (*store.Session, error)

	GetProfile(ctx context.Context, userID string) (*store.LearnerProfile, error)
	SaveProfile(ctx context.Context, p *store.LearnerProfile) error

	CreateReport(ctx context.Context, r *store.InsightReport) (*store.ValidationQueueItem, error)
	ListReports(ctx context.Context, userID string) ([]store.InsightReport, error)
}

// storeRepository adapts *store.Store.
type storeRepository struct {
	s *store.Store
}

// NewRepository returns a Repository backed by s.
func NewRepository(s *store.Store) Repository {
	return &storeRepository{s: s}
}

func (r *storeRepository) GetNode(ctx context.Context, userID, conceptID string) (*mastery.Node, error) {
	return r.s.Nodes().Get(ctx, userID, conceptID)
}

func (r *storeRepository) ListNodes(ctx context.Context, userID, moduleID string) ([]mastery.Node, error) {
	return r.s.Nodes().List(ctx, userID, moduleID)
}

func (r *storeRepository) SaveNode(ctx context.Context, n *mastery.Node) error {
	return r.s.Nodes().Save(ctx, n)
}

func (r *storeRepository) AppendSession(ctx context.Context, s *store.Session) error {
	return r.s.Sessions().Append(ctx, s)
}

func (r *storeRepository) ListSessions(ctx context.Context, userID, moduleID string) ([]store.Session, error) {
	return r.s.Sessions().List(ctx, userID, moduleID)
}

func (r *storeRepository) LatestSession(ctx context.Context, userID, conceptID, kind string) (*store.Session, error) {
	return r.s.Sessions().Latest(ctx, userID, conceptID, kind)
}

func (r *storeRepository) GetProfile(ctx context.Context, userID string) (*store.LearnerProfile, error) {
	return r.s.Users().Profile(ctx, userID)
}

func (r *storeRepository) SaveProfile(ctx context.Context, p *store.LearnerProfile) error {
	return r.s.Users().SaveProfile(ctx, p)
}

func (r *storeRepository) CreateReport(ctx context.Context, rep *store.InsightReport) (*store.ValidationQueueItem, error) {
	return r.s.Reports().CreateWithQueue(ctx, rep)
}

func (r *storeRepository) ListReports(ctx context.Context, userID string) ([]store.InsightReport, error) {
	return r.s.Reports().ListForUser(ctx, userID)
}
