package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/mastery"
)

// NodeRepo persists knowledge nodes.
type NodeRepo struct {
	db *gorm.DB
}

// Get returns the node for (userID, conceptID).
func (r *NodeRepo) Get(ctx context.Context, userID, conceptID string) (*mastery.Node, error) {
	var row KnowledgeNode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND concept_id = ?", userID, conceptID).
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	n := row.toNode()
	return &n, nil
}

// List returns the user's nodes, restricted to moduleID when non-empty.
func (r *NodeRepo) List(ctx context.Context, userID, moduleID string) ([]mastery.Node, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if moduleID != "" {
		q = q.Where("module_id = ?", moduleID)
	}
	var rows []KnowledgeNode
	if err := q.Order("first_seen_at ASC, concept_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list knowledge nodes: %w", err)
	}
	out := make([]mastery.Node, len(rows))
	for i := range rows {
		out[i] = rows[i].toNode()
	}
	return out, nil
}

// Save inserts or updates n. The last write wins.
func (r *NodeRepo) Save(ctx context.Context, n *mastery.Node) error {
	if err := n.Check(); err != nil {
		return fmt.Errorf("save knowledge node %s: %w", n.ConceptID, err)
	}
	row := fromNode(n)
	row.ID = uuid.NewString()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "concept_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"module_id", "status", "strength", "gap_flags", "difficulty",
			"consecutive_correct", "last_tested_at", "mastered_at", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save knowledge node %s: %w", n.ConceptID, err)
	}
	return nil
}

func (k *KnowledgeNode) toNode() mastery.Node {
	flags := []string(k.GapFlags)
	if flags == nil {
		flags = []string{}
	}
	return mastery.Node{
		UserID:             k.UserID,
		ModuleID:           k.ModuleID,
		ConceptID:          k.ConceptID,
		Status:             mastery.Status(k.Status),
		Strength:           k.Strength,
		GapFlags:           flags,
		Difficulty:         difficulty.Tier(k.Difficulty),
		ConsecutiveCorrect: k.ConsecutiveCorrect,
		FirstSeenAt:        k.FirstSeenAt,
		LastTestedAt:       k.LastTestedAt,
		MasteredAt:         k.MasteredAt,
		UpdatedAt:          k.UpdatedAt,
	}
}

func fromNode(n *mastery.Node) KnowledgeNode {
	return KnowledgeNode{
		UserID:             n.UserID,
		ModuleID:           n.ModuleID,
		ConceptID:          n.ConceptID,
		Status:             string(n.Status),
		Strength:           n.Strength,
		GapFlags:           datatypes.JSONSlice[string](n.GapFlags),
		Difficulty:         string(n.Difficulty),
		ConsecutiveCorrect: n.ConsecutiveCorrect,
		FirstSeenAt:        n.FirstSeenAt,
		LastTestedAt:       n.LastTestedAt,
		MasteredAt:         n.MasteredAt,
		UpdatedAt:          n.UpdatedAt,
	}
}
