package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Roles.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// User is an account; Role is student or instructor.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"not null;default:student" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "user" }

// UserPreferences is the stored settings document. Nested collections are
// JSON-encoded text.
type UserPreferences struct {
	UserID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"userId"`
	Language            string     `json:"language"`
	Interests           string     `gorm:"type:text" json:"interests"`
	Community           string     `json:"community"`
	OutputStyle         string     `json:"outputStyle"`
	TextSize            string     `json:"textSize"`
	DefaultReadingLevel string     `json:"defaultReadingLevel"`
	MicroPromptsEnabled bool       `json:"microPromptsEnabled"`
	Curiosity           string     `gorm:"type:text" json:"curiosity"`
	HasOnboarded        bool       `json:"hasOnboarded"`
	Signals             string     `gorm:"type:text" json:"signals"`
	Preferences         string     `gorm:"type:text" json:"preferences"`
	Nudges              string     `gorm:"type:text" json:"nudges"`
	LastSession         *time.Time `json:"lastSession"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (UserPreferences) TableName() string { return "user_preferences" }

// Class is owned by one instructor.
type Class struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	InstructorID uuid.UUID    `gorm:"type:uuid;index;not null" json:"instructorId"`
	Enrollments  []Enrollment `gorm:"foreignKey:ClassID" json:"enrollments,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (Class) TableName() string { return "class" }

// Enrollment links a student to a class. (ClassID, UserID) is unique.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_class_user" json:"classId"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_class_user" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Enrollment) TableName() string { return "enrollment" }

// Event is an append-only analytics record.
type Event struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	ClassID    *uuid.UUID     `gorm:"type:uuid;index:idx_event_class_ts" json:"classId,omitempty"`
	Event      string         `gorm:"not null" json:"event"`
	Properties datatypes.JSON `json:"properties"`
	TS         time.Time      `gorm:"index:idx_event_class_ts;not null" json:"ts"`
}

func (Event) TableName() string { return "event" }

// Artifact is an output a student saved or shared.
type Artifact struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	ClassID   *uuid.UUID `gorm:"type:uuid;index" json:"classId,omitempty"`
	Type      string     `gorm:"not null" json:"type"`
	Content   string     `gorm:"type:text" json:"content"`
	IsShared  bool       `json:"isShared"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Artifact) TableName() string { return "artifact" }

// SavedQuery is an assistant query a user kept for later.
type SavedQuery struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Title      string         `gorm:"not null" json:"title"`
	Query      string         `gorm:"type:text;not null" json:"query"`
	Mode       string         `gorm:"not null" json:"mode"`
	URL        *string        `json:"url"`
	Result     *string        `gorm:"type:text" json:"result"`
	Tags       datatypes.JSON `json:"tags"`
	Folder     *string        `json:"folder"`
	IsFavorite bool           `json:"isFavorite"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (SavedQuery) TableName() string { return "saved_query" }

// LLMRequest records one language model call.
type LLMRequest struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Purpose      string    `gorm:"index" json:"purpose"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `gorm:"type:text" json:"errorMessage,omitempty"`
	RequestBody  string    `gorm:"type:text" json:"requestBody,omitempty"`
	ResponseBody string    `gorm:"type:text" json:"responseBody,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

func (LLMRequest) TableName() string { return "llm_request" }

// Models lists every table for migration.
func Models() []any {
	return []any{
		&User{},
		&UserPreferences{},
		&Class{},
		&Enrollment{},
		&Event{},
		&Artifact{},
		&SavedQuery{},
		&LLMRequest{},
	}
}
