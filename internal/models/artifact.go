package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SeasonArtifact stores the aggregated allowance table of one season
type SeasonArtifact struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Season    int            `gorm:"uniqueIndex;not null" json:"season"`
	Payload   datatypes.JSON `json:"payload"`
	RowCount  int            `json:"row_count"`
	BuiltAt   time.Time      `gorm:"not null" json:"built_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SeasonArtifact) TableName() string {
	return "season_artifacts"
}

// RefreshStatus tracks a refresh run through its lifecycle
type RefreshStatus string

const (
	RefreshStatusRunning   RefreshStatus = "running"
	RefreshStatusSucceeded RefreshStatus = "succeeded"
	RefreshStatusFailed    RefreshStatus = "failed"
)

// RefreshRun is an audit record of one artifact build attempt over one or more seasons
type RefreshRun struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	Trigger    string        `gorm:"size:20;not null" json:"trigger"` // schedule, api, cli
	Seasons    SeasonList    `json:"seasons"`
	Built      SeasonList    `json:"built"`
	Status     RefreshStatus `gorm:"type:varchar(20);default:'running';index" json:"status"`
	Error      string        `gorm:"type:text" json:"error,omitempty"`
	StartedAt  time.Time     `gorm:"not null;index" json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// SeasonList is stored as a postgres integer array, and as its text form on sqlite
type SeasonList []int64

func (l SeasonList) Value() (driver.Value, error) {
	return pq.Int64Array(l).Value()
}

func (l *SeasonList) Scan(src interface{}) error {
	return (*pq.Int64Array)(l).Scan(src)
}

// GormDBDataType picks the column type per dialect
func (SeasonList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "integer[]"
	}
	return "text"
}

// TableName specifies the table name for GORM
func (RefreshRun) TableName() string {
	return "refresh_runs"
}

// BeforeCreate assigns the run id
func (r *RefreshRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AllModels lists every table managed by migrations
func AllModels() []interface{} {
	return []interface{}{
		&SeasonArtifact{},
		&RefreshRun{},
	}
}
