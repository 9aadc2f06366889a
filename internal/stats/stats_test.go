// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stats

import (
	"testing"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	recs := []*model.SessionRecord{
		{State: model.StateInProgress},
		{State: model.StateP2},
		{State: model.StateCompleted},
		{State: model.StateAborted},
		{State: model.StateCompleted},
	}
	assert.Equal(t, Summary{Total: 5, Completed: 2, Aborted: 1, Active: 2}, Aggregate(recs))
	assert.Equal(t, Summary{}, Aggregate(nil))
}
