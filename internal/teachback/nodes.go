package teachback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/mastery"
)

// NodeList is a learner's knowledge nodes with their mastery percentage.
type NodeList struct {
	Nodes             []mastery.Node `json:"nodes"`
	MasteryPercentage int            `json:"masteryPercentage"`
}

// Nodes lists the learner's nodes, restricted to moduleID when non-empty.
func (s *Service) Nodes(ctx context.Context, userID, moduleID string) (*NodeList, error) {
	moduleID = strings.TrimSpace(moduleID)
	if moduleID != "" {
		if _, ok := s.catalog.Module(moduleID); !ok {
			return nil, invalid("moduleId", "unknown module "+moduleID)
		}
	}
	nodes, err := s.repo.ListNodes(ctx, userID, moduleID)
	if err != nil {
		return nil, retryable(fmt.Errorf("list knowledge nodes: %w", err))
	}
	if nodes == nil {
		nodes = []mastery.Node{}
	}
	return &NodeList{Nodes: nodes, MasteryPercentage: mastery.Percentage(nodes)}, nil
}

// NodeInput sets fields of a knowledge node directly. Nil fields keep the
// current value.
type NodeInput struct {
	ConceptID  string   `json:"conceptId"`
	Status     string   `json:"status"`
	Strength   *int     `json:"strength"`
	GapFlags   []string `json:"gapFlags"`
	Difficulty string   `json:"difficulty"`
}

// NodeResult is an upserted node and the module's mastery percentage.
type NodeResult struct {
	Node              *mastery.Node `json:"node"`
	MasteryPercentage int           `json:"masteryPercentage"`
}

// UpsertNode creates or updates a knowledge node.
func (s *Service) UpsertNode(ctx context.Context, userID string, in NodeInput) (*NodeResult, error) {
	c, err := s.concept(in.ConceptID)
	if err != nil {
		return nil, err
	}
	var status mastery.Status
	if in.Status != "" {
		status = mastery.Status(strings.ToLower(strings.TrimSpace(in.Status)))
		if !status.Valid() {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", in.Status))
		}
	}
	if in.Strength != nil && (*in.Strength < 0 || *in.Strength > 100) {
		return nil, invalid("strength", "must be between 0 and 100")
	}
	var tier difficulty.Tier
	if in.Difficulty != "" {
		t, ok := difficulty.Parse(in.Difficulty)
		if !ok {
			return nil, invalid("difficulty", fmt.Sprintf("unknown difficulty %q", in.Difficulty))
		}
		tier = t
	}

	now := s.now()
	node, _, err := s.loadNode(ctx, userID, c, now)
	if err != nil {
		return nil, err
	}
	if in.Strength != nil {
		node.Strength = *in.Strength
	}
	if in.GapFlags != nil {
		node.GapFlags = mastery.NormalizeFlags(in.GapFlags)
	}
	if tier != "" {
		node.Difficulty = tier
	}
	if status != "" {
		s.logTransition(userID, node.SetStatus(status, now))
	}
	node.UpdatedAt = now

	if err := s.repo.SaveNode(ctx, node); err != nil {
		if errors.Is(err, mastery.ErrMasteredAtMismatch) {
			return nil, invalid("status", err.Error())
		}
		s.log.Error("save knowledge node failed", "user_id", userID, "concept_id", c.ID, "error", err)
		return nil, retryable(fmt.Errorf("save knowledge node: %w", err))
	}

	nodes, err := s.repo.ListNodes(ctx, userID, c.ModuleID)
	if err != nil {
		return nil, retryable(fmt.Errorf("list knowledge nodes: %w", err))
	}
	return &NodeResult{Node: node, MasteryPercentage: mastery.Percentage(nodes)}, nil
}
