package domain

// CourseStatus mirrors the publication states of the course service.
type CourseStatus int

const (
	CoursePending   CourseStatus = 1
	CoursePublished CourseStatus = 2
	CourseRemoved   CourseStatus = 3
	CourseFinished  CourseStatus = 4
)

// Published reports whether learners may currently access a course in this state.
func (s CourseStatus) Published() bool {
	return s != CoursePending && s != CourseRemoved
}

// CourseSimpleInfo is the course summary. ValidDuration is in months; nil or
// zero means enrollments never expire.
type CourseSimpleInfo struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	CoverURL      string       `json:"coverUrl"`
	SectionNum    int          `json:"sectionNum"`
	ValidDuration *int         `json:"validDuration"`
	Status        CourseStatus `json:"status"`
}

type CourseFullInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CoverURL   string `json:"coverUrl"`
	SectionNum int    `json:"sectionNum"`
}

type CataSimpleInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	CIndex int    `json:"cIndex"`
}
