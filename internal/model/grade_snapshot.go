package model

import (
	"time"

	"gorm.io/datatypes"
)

// GradeSnapshot is the immutable, versioned view of a grade at publish
// time. Rows are append-only: republishing after an appeal inserts a new
// row with the next version number and never touches earlier ones, so the
// record of what the student was told, and when, stays reconstructable.
//
// All fields carry `<-:create` so gorm refuses to update them after insert.
type GradeSnapshot struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	SubmissionID      uint           `json:"submission_id" gorm:"<-:create;not null;index:idx_snapshot_version,unique"`
	Submission        Submission     `json:"submission,omitempty" gorm:"foreignKey:SubmissionID"`
	FinalScore        float64        `json:"final_score" gorm:"<-:create;not null"`
	Feedback          string         `json:"feedback,omitempty" gorm:"<-:create;type:text"`
	DetailedBreakdown datatypes.JSON `json:"detailed_breakdown,omitempty" gorm:"<-:create"`
	PublishedByID     uint           `json:"published_by_id" gorm:"<-:create;not null"`
	PublishedBy       User           `json:"published_by,omitempty" gorm:"foreignKey:PublishedByID"`
	VersionNumber     int            `json:"version_number" gorm:"<-:create;not null;index:idx_snapshot_version,unique"`
	PublishNotes      string         `json:"publish_notes,omitempty" gorm:"<-:create;type:text"`
	SnapshotAt        time.Time      `json:"snapshot_at" gorm:"<-:create;autoCreateTime"`
}
