package mongo

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"consultly/internal/migrations/mongo/validators"
	"consultly/pkg/model"
)

func TestCollections_MatchRepositories(t *testing.T) {
	defs := collections()
	for _, name := range []string{AppointmentsCollection, SlotLocksCollection, UsersCollection} {
		def, ok := defs[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)
		assert.NotNil(t, def.Validator, name)
	}
}

func TestSlotLocksIndexes_ExpireOnTimestamp(t *testing.T) {
	ttl := SlotLocksIndexes[0]
	require.NotNil(t, ttl.Options)
	require.NotNil(t, ttl.Options.ExpireAfterSeconds)
	assert.EqualValues(t, 0, *ttl.Options.ExpireAfterSeconds)
}

func TestSlotLockValidator_KeyPattern(t *testing.T) {
	schema := validators.SlotLockValidator["$jsonSchema"].(bson.M)
	id := schema["properties"].(bson.M)["_id"].(bson.M)
	pattern := regexp.MustCompile(id["pattern"].(string))

	assert.True(t, pattern.MatchString(model.SlotLockKey("c-42", time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC))))
	assert.False(t, pattern.MatchString("slot-lock:c-42:2026-10-19T04:30:00Z"))
}

func TestAppointmentValidator_StatusesMatchModel(t *testing.T) {
	schema := validators.AppointmentValidator["$jsonSchema"].(bson.M)
	enum := schema["properties"].(bson.M)["status"].(bson.M)["enum"].([]string)

	var statuses []string
	for _, s := range append(append([]model.Status{}, model.ActiveStatuses...), model.HistoryStatuses...) {
		statuses = append(statuses, string(s))
	}
	assert.ElementsMatch(t, statuses, enum)
}

func TestAppointmentsIndexes_OneActiveAppointmentPerSlot(t *testing.T) {
	var active *options.IndexOptions
	for _, idx := range AppointmentsIndexes {
		if idx.Options != nil && idx.Options.Name != nil && *idx.Options.Name == ActiveSlotIndex {
			active = idx.Options
		}
	}
	require.NotNil(t, active, "missing %s index", ActiveSlotIndex)
	require.NotNil(t, active.Unique)
	assert.True(t, *active.Unique)

	filter := active.PartialFilterExpression.(bson.M)
	statuses := filter["status"].(bson.M)["$in"].([]string)
	var want []string
	for _, s := range model.ActiveStatuses {
		want = append(want, string(s))
	}
	assert.ElementsMatch(t, want, statuses)
}
