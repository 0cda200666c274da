package store

import (
	"time"

	"gorm.io/datatypes"
)

// User is a learner account.
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Email     string `gorm:"uniqueIndex;size:320;not null"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LearnerProfile holds onboarding answers used to tailor assessment.
type LearnerProfile struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"uniqueIndex;size:36;not null"`
	Role        string
	Sector      string
	OrgSize     string
	PriorGaps   datatypes.JSONSlice[string]
	Calibration datatypes.JSONType[map[string]string]
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// KnowledgeNode is the persisted form of mastery.Node.
type KnowledgeNode struct {
	ID                 string `gorm:"primaryKey;size:36"`
	UserID             string `gorm:"uniqueIndex:idx_node_user_concept;index:idx_node_user_module;size:36;not null"`
	ModuleID           string `gorm:"index:idx_node_user_module;size:64;not null"`
	ConceptID          string `gorm:"uniqueIndex:idx_node_user_concept;size:64;not null"`
	Status             string `gorm:"size:16;not null"`
	Strength           int
	GapFlags           datatypes.JSONSlice[string]
	Difficulty         string `gorm:"size:16;not null"`
	ConsecutiveCorrect int
	FirstSeenAt        time.Time
	LastTestedAt       time.Time
	MasteredAt         *time.Time
	UpdatedAt          time.Time
}

// Session kinds.
const (
	SessionTeach  = "teach"
	SessionDeeper = "deeper"
)

// Session is one immutable teach-back or deeper submission.
type Session struct {
	ID              string `gorm:"primaryKey;size:36"`
	UserID          string `gorm:"uniqueIndex:idx_session_number;size:36;not null"`
	ModuleID        string `gorm:"uniqueIndex:idx_session_number;size:64;not null"`
	SessionNumber   int    `gorm:"uniqueIndex:idx_session_number;not null"`
	ConceptID       string `gorm:"index;size:64;not null"`
	Kind            string `gorm:"size:16;not null"`
	Response        string `gorm:"type:text"`
	Difficulty      string `gorm:"size:16"`
	Analysis        datatypes.JSON
	OverallStrength int
	Degraded        bool
	PhaseReached    string `gorm:"size:16"`
	Completed       bool
	CreatedAt       time.Time
}

// Report statuses.
const (
	ReportPending   = "pending"
	ReportValidated = "validated"
	ReportRejected  = "rejected"
)

// InsightReport is the end-of-module report and its optional artefact.
type InsightReport struct {
	ID              string `gorm:"primaryKey;size:36"`
	UserID          string `gorm:"index;size:36;not null"`
	ModuleID        string `gorm:"size:64;not null"`
	Status          string `gorm:"size:16;not null"`
	Archetype       string
	OverallScore    int
	BadgesEarned    datatypes.JSONSlice[string]
	Report          datatypes.JSON
	Degraded        bool
	ArtefactTitle   string
	ArtefactContent string `gorm:"type:text"`
	ArtefactStatus  string `gorm:"size:16"`
	BoardReadiness  int
	ValidatorID     string `gorm:"size:36"`
	ValidatorNotes  string `gorm:"type:text"`
	ValidatedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validator is a human reviewer.
type Validator struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:320;not null"`
	Name         string
	PasswordHash string `gorm:"not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Queue item statuses.
const (
	QueuePending  = "pending"
	QueueApproved = "approved"
	QueueRejected = "rejected"
)

// ValidationQueueItem is a report awaiting human review.
type ValidationQueueItem struct {
	ID         string `gorm:"primaryKey;size:36"`
	ReportID   string `gorm:"uniqueIndex;size:36;not null"`
	UserID     string `gorm:"index;size:36;not null"`
	ModuleID   string `gorm:"size:64;not null"`
	Status     string `gorm:"index;size:16;not null"`
	ReviewerID string `gorm:"size:36"`
	Notes      string `gorm:"type:text"`
	CreatedAt  time.Time
	ReviewedAt *time.Time
}

// TableName keeps the logical table name.
func (ValidationQueueItem) TableName() string { return "validation_queue" }

// LLMRequestEvent is one row of the LLM usage log.
type LLMRequestEvent struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Timestamp    time.Time `gorm:"index;not null"`
	Provider     string    `gorm:"size:32"`
	Model        string    `gorm:"size:128"`
	Purpose      string    `gorm:"index;size:32"`
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Attempt      int
	Success      bool
	ErrorKind    string `gorm:"index;size:32"`
	ErrorMessage string `gorm:"type:text"`
	RequestBody  string `gorm:"type:text"`
	ResponseBody string `gorm:"type:text"`
}

func allModels() []any {
	return []any{
		&User{},
		&LearnerProfile{},
		&KnowledgeNode{},
		&Session{},
		&InsightReport{},
		&Validator{},
		&ValidationQueueItem{},
		&LLMRequestEvent{},
	}
}
