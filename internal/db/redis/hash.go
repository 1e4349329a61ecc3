package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/photosearch/internal/db"
)

// HSetMulti pipelines one HSET per item in a single round trip.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) ([]error, error) {
	if len(items) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, len(items))
	for _, item := range items {
		cmds = append(cmds, s.hset(item))
	}

	errs := make([]error, len(items))
	for i, res := range s.doMulti(ctx, cmds...) {
		err := res.Error()
		if err == nil {
			continue
		}
		// One unanswered command means the connection is gone for all of them.
		if _, replied := rueidis.IsRedisErr(err); !replied {
			return nil, wrapErr(db.OpHSet, err)
		}
		errs[i] = &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
	}
	return errs, nil
}

// hset builds HSET with fields in sorted order.
func (s *Store) hset(item db.HashSetItem) rueidis.Completed {
	cmd := s.client.B().Hset().Key(item.Key).FieldValue()
	for _, k := range slices.Sorted(maps.Keys(item.Fields)) {
		cmd = cmd.FieldValue(k, item.Fields[k])
	}
	return cmd.Build()
}
