package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"learningplatform/services/learning-service/internal/application"
	"learningplatform/services/learning-service/internal/domain"
	"learningplatform/services/learning-service/internal/platform/logger"
)

const keyPrefix = "course:simple:"

type kvClient interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CourseGateway keeps course summaries in Redis for a short while. Full course
// info and catalogue lookups go straight to the wrapped gateway. Redis failures
// fall back to the wrapped gateway.
type CourseGateway struct {
	next application.CourseGateway
	rdb  kvClient
	ttl  time.Duration
	log  *logger.Logger
}

func NewCourseGateway(next application.CourseGateway, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CourseGateway {
	return newCourseGateway(next, rdb, ttl, log)
}

func newCourseGateway(next application.CourseGateway, rdb kvClient, ttl time.Duration, log *logger.Logger) *CourseGateway {
	if log == nil {
		log = logger.Nop()
	}
	return &CourseGateway{next: next, rdb: rdb, ttl: ttl, log: log.With("component", "CourseCache")}
}

// GetSimpleInfoList answers from cache where it can and asks the course service
// for the rest in one call. Output order is hits first, then fetched entries.
func (g *CourseGateway) GetSimpleInfoList(ctx context.Context, courseIDs []int64) ([]domain.CourseSimpleInfo, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(courseIDs))
	for i, id := range courseIDs {
		keys[i] = key(id)
	}

	var (
		hits   []domain.CourseSimpleInfo
		misses []int64
	)
	vals, err := g.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		g.log.Warn("course cache read failed", "error", err)
		misses = courseIDs
	} else {
		for i, v := range vals {
			raw, ok := v.(string)
			var info domain.CourseSimpleInfo
			if !ok || json.Unmarshal([]byte(raw), &info) != nil {
				misses = append(misses, courseIDs[i])
				continue
			}
			hits = append(hits, info)
		}
	}

	if len(misses) == 0 {
		return hits, nil
	}

	fetched, err := g.next.GetSimpleInfoList(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, info := range fetched {
		data, err := json.Marshal(info)
		if err != nil {
			continue
		}
		if err := g.rdb.Set(ctx, key(info.ID), data, g.ttl).Err(); err != nil {
			g.log.Warn("course cache write failed", "courseId", info.ID, "error", err)
		}
	}
	return append(hits, fetched...), nil
}

func (g *CourseGateway) GetCourseInfoByID(ctx context.Context, courseID int64, withCatalogue, withTeachers bool) (*domain.CourseFullInfo, error) {
	return g.next.GetCourseInfoByID(ctx, courseID, withCatalogue, withTeachers)
}

func (g *CourseGateway) BatchQueryCatalogue(ctx context.Context, sectionIDs []int64) ([]domain.CataSimpleInfo, error) {
	return g.next.BatchQueryCatalogue(ctx, sectionIDs)
}

func key(courseID int64) string {
	return keyPrefix + strconv.FormatInt(courseID, 10)
}
