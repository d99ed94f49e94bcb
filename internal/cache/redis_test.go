package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/model"
)

type fakeRedis struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failErr error
	deleted []string
	mu      sync.Mutex
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	b, ok := value.([]byte)
	if !ok {
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	f.data[key] = b
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewIntResult(0, f.failErr)
	}
	var n int64
	for _, key := range keys {
		f.deleted = append(f.deleted, key)
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "scribe:diagnoses:p-1", Key(model.CategoryDiagnoses, "p-1"))
	assert.Equal(t, "scribe:surgeries:abc", Key(model.CategorySurgeries, "abc"))
}

func TestRedis_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	r := NewRedis(fake, time.Minute, nil)

	records := []model.AllergyRecord{{PatientID: "p-1", Allergen: "Dipirona", AllergenType: "medication"}}
	require.NoError(t, r.Set(ctx, model.CategoryAllergies, "p-1", records))
	assert.Equal(t, time.Minute, fake.ttls["scribe:allergies:p-1"])

	var got []model.AllergyRecord
	hit, err := r.Get(ctx, model.CategoryAllergies, "p-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Dipirona", got[0].Allergen)

	require.NoError(t, r.Invalidate(ctx, model.CategoryAllergies, "p-1"))
	assert.Equal(t, []string{"scribe:allergies:p-1"}, fake.deleted)

	hit, err = r.Get(ctx, model.CategoryAllergies, "p-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedis_DefaultTTL(t *testing.T) {
	fake := newFakeRedis()
	r := NewRedis(fake, 0, nil)
	require.NoError(t, r.Set(context.Background(), model.CategoryDiagnoses, "p-1", []string{}))
	assert.Equal(t, DefaultTTL, fake.ttls["scribe:diagnoses:p-1"])
}

func TestRedis_Errors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.failErr = errors.New("connection refused")
	r := NewRedis(fake, time.Minute, nil)

	assert.ErrorIs(t, r.Invalidate(ctx, model.CategoryMedications, "p-1"), fake.failErr)
	assert.ErrorIs(t, r.Set(ctx, model.CategoryMedications, "p-1", []string{}), fake.failErr)

	var dest []string
	hit, err := r.Get(ctx, model.CategoryMedications, "p-1", &dest)
	assert.False(t, hit)
	assert.ErrorIs(t, err, fake.failErr)
}

func TestRedis_CorruptValue(t *testing.T) {
	fake := newFakeRedis()
	fake.data[Key(model.CategoryDiagnoses, "p-1")] = []byte("{not json")
	r := NewRedis(fake, time.Minute, nil)

	var dest []model.DiagnosisRecord
	hit, err := r.Get(context.Background(), model.CategoryDiagnoses, "p-1", &dest)
	assert.False(t, hit)
	assert.Error(t, err)
}
