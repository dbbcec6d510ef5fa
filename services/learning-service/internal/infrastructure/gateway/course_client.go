package gateway

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"learningplatform/services/learning-service/internal/domain"
)

const (
	methodGetSimpleInfoList   = "/course.CourseService/GetSimpleInfoList"
	methodGetCourseInfoByID   = "/course.CourseService/GetCourseInfoById"
	methodBatchQueryCatalogue = "/course.CourseService/BatchQueryCatalogue"
)

// Error marks a failed call to the course service. Callers map it to a
// service-unavailable answer.
type Error struct {
	Method string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("course service %s: %v", e.Method, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type simpleInfoListRequest struct {
	IDs []int64 `json:"ids"`
}

type simpleInfoListResponse struct {
	Courses []domain.CourseSimpleInfo `json:"courses"`
}

type courseInfoRequest struct {
	ID            int64 `json:"id"`
	WithCatalogue bool  `json:"withCatalogue"`
	WithTeachers  bool  `json:"withTeachers"`
}

type courseInfoResponse struct {
	Course *domain.CourseFullInfo `json:"course"`
}

type catalogueRequest struct {
	IDs []int64 `json:"ids"`
}

type catalogueResponse struct {
	Catalogues []domain.CataSimpleInfo `json:"catalogues"`
}

type CourseClient struct {
	cc grpc.ClientConnInterface
}

func NewCourseClient(url string) (*CourseClient, *grpc.ClientConn, error) {
	cc, err := grpc.NewClient(url,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return NewCourseClientFromConn(cc), cc, nil
}

// NewCourseClientFromConn wraps an existing connection. The connection must
// use the json codec (see NewCourseClient).
func NewCourseClientFromConn(cc grpc.ClientConnInterface) *CourseClient {
	return &CourseClient{cc: cc}
}

func (c *CourseClient) GetSimpleInfoList(ctx context.Context, courseIDs []int64) ([]domain.CourseSimpleInfo, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var resp simpleInfoListResponse
	if err := c.cc.Invoke(ctx, methodGetSimpleInfoList, &simpleInfoListRequest{IDs: courseIDs}, &resp); err != nil {
		return nil, errors.Trace(&Error{Method: "GetSimpleInfoList", Err: err})
	}
	return resp.Courses, nil
}

// GetCourseInfoByID returns nil when the course service does not know the course.
func (c *CourseClient) GetCourseInfoByID(ctx context.Context, courseID int64, withCatalogue, withTeachers bool) (*domain.CourseFullInfo, error) {
	req := &courseInfoRequest{ID: courseID, WithCatalogue: withCatalogue, WithTeachers: withTeachers}

	var resp courseInfoResponse
	if err := c.cc.Invoke(ctx, methodGetCourseInfoByID, req, &resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, errors.Trace(&Error{Method: "GetCourseInfoById", Err: err})
	}
	return resp.Course, nil
}

func (c *CourseClient) BatchQueryCatalogue(ctx context.Context, sectionIDs []int64) ([]domain.CataSimpleInfo, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	var resp catalogueResponse
	if err := c.cc.Invoke(ctx, methodBatchQueryCatalogue, &catalogueRequest{IDs: sectionIDs}, &resp); err != nil {
		return nil, errors.Trace(&Error{Method: "BatchQueryCatalogue", Err: err})
	}
	return resp.Catalogues, nil
}
