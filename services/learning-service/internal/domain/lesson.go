package domain

import "time"

type LessonStatus int

const (
	LessonNotStarted LessonStatus = iota
	LessonLearning
	LessonFinished
	LessonExpired
)

func (s LessonStatus) String() string {
	switch s {
	case LessonNotStarted:
		return "NOT_STARTED"
	case LessonLearning:
		return "LEARNING"
	case LessonFinished:
		return "FINISHED"
	case LessonExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// Lesson is a user's enrollment in one course.
type Lesson struct {
	ID              int64        `gorm:"primaryKey;autoIncrement"`
	UserID          int64        `gorm:"not null;uniqueIndex:uk_user_course,priority:1;index:idx_user_status,priority:1"`
	CourseID        int64        `gorm:"not null;uniqueIndex:uk_user_course,priority:2;index"`
	Status          LessonStatus `gorm:"not null;default:0;index:idx_user_status,priority:2"`
	LatestSectionID *int64
	LatestLearnTime *time.Time
	ExpireTime      *time.Time
	CreateTime      time.Time `gorm:"autoCreateTime"`
	UpdateTime      time.Time `gorm:"autoUpdateTime"`
}

func (Lesson) TableName() string {
	return "learning_lesson"
}

// LessonView is what the lessons API answers with.
type LessonView struct {
	ID                 int64        `json:"id"`
	CourseID           int64        `json:"courseId"`
	CourseName         string       `json:"courseName,omitempty"`
	CourseCoverURL     string       `json:"courseCoverUrl,omitempty"`
	Sections           int          `json:"sections,omitempty"`
	Status             LessonStatus `json:"status"`
	ExpireTime         *time.Time   `json:"expireTime"`
	CreateTime         time.Time    `json:"createTime"`
	LatestSectionID    *int64       `json:"latestSectionId,omitempty"`
	LatestLearnTime    *time.Time   `json:"latestLearnTime,omitempty"`
	CourseAmount       int64        `json:"courseAmount,omitempty"`
	LatestSectionName  string       `json:"latestSectionName,omitempty"`
	LatestSectionIndex *int         `json:"latestSectionIndex,omitempty"`
}

// NewLessonView copies the stored fields of l; course data is filled in by the caller.
func NewLessonView(l Lesson) LessonView {
	return LessonView{
		ID:              l.ID,
		CourseID:        l.CourseID,
		Status:          l.Status,
		ExpireTime:      l.ExpireTime,
		CreateTime:      l.CreateTime,
		LatestSectionID: l.LatestSectionID,
		LatestLearnTime: l.LatestLearnTime,
	}
}
