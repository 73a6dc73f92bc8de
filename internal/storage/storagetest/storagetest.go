// Package storagetest holds behavior checks shared by every storage backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/storage"
)

// Run exercises store against the storage contract. newStore must return an
// empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("ProfileCRUD", func(t *testing.T) { testProfileCRUD(t, newStore(t)) })
	t.Run("TemplateCRUD", func(t *testing.T) { testTemplateCRUD(t, newStore(t)) })
	t.Run("TemplateDocumentImmutable", func(t *testing.T) { testDocumentImmutable(t, newStore(t)) })
	t.Run("RejectsInconsistentTemplate", func(t *testing.T) { testRejectsInconsistent(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Subscriptions", func(t *testing.T) { testSubscriptions(t, newStore(t)) })
	t.Run("SubscriptionConvergesUnderConcurrentWrites", func(t *testing.T) {
		testSubscriptionConverges(t, newStore(t))
	})
}

// SampleTemplate returns a template with one native and one manual field and
// a mapping for each.
func SampleTemplate() *model.Template {
	return &model.Template{
		Name:     "Lease",
		Document: []byte("%PDF-1.7 sample"),
		Fields: []model.TemplateField{
			{ID: "full_name", Name: "full_name", Kind: model.FieldKindText},
			{
				ID: "custom_1", Name: "Signature Date", Kind: model.FieldKindText, IsManual: true,
				PageIndex: 0, Box: &geometry.Rect{X: 50, Y: 50, Width: 150, Height: 30}, FontSize: 12,
			},
		},
		Mappings: []model.Mapping{
			{TemplateFieldID: "full_name", ProfileKey: "Name", Transformation: model.TransformNone},
			{TemplateFieldID: "custom_1", ProfileKey: "Date", Transformation: model.TransformUppercase},
		},
		CreatedAt: time.UnixMilli(1700000000000),
	}
}

func testProfileCRUD(t *testing.T, store storage.Store) {
	ctx := context.Background()
	defer store.Close()

	id, err := store.CreateProfile(ctx, &model.Profile{Name: "Jane", Fields: map[string]string{"Name": "Jane Doe"}})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Jane", got.Name)
	assert.Equal(t, "Jane Doe", got.Value("Name"))

	got.Fields["Email"] = "jane@example.com"
	require.NoError(t, store.UpdateProfile(ctx, got))

	got, err = store.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Value("Email"))

	second, err := store.CreateProfile(ctx, &model.Profile{Name: "John"})
	require.NoError(t, err)
	assert.NotEqual(t, id, second)

	list, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID)

	_, err = store.CreateProfile(ctx, &model.Profile{Name: "  "})
	assert.Error(t, err)

	require.NoError(t, store.DeleteProfile(ctx, id))
	_, err = store.GetProfile(ctx, id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testTemplateCRUD(t *testing.T, store storage.Store) {
	ctx := context.Background()
	defer store.Close()

	id, err := store.CreateTemplate(ctx, SampleTemplate())
	require.NoError(t, err)

	got, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Lease", got.Name)
	assert.Equal(t, []byte("%PDF-1.7 sample"), got.Document)
	require.Len(t, got.Fields, 2)
	assert.False(t, got.Fields[0].IsManual)
	assert.Nil(t, got.Fields[0].Box)
	require.NotNil(t, got.Fields[1].Box)
	assert.Equal(t, 150.0, got.Fields[1].Box.Width)
	assert.Len(t, got.Mappings, 2)
	assert.Equal(t, int64(1700000000000), got.CreatedAt.UnixMilli())

	list, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Document, "listings carry no document bytes")
	assert.Len(t, list[0].Fields, 2)

	require.NoError(t, store.DeleteTemplate(ctx, id))
	_, err = store.GetTemplate(ctx, id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testDocumentImmutable(t *testing.T, store storage.Store) {
	ctx := context.Background()
	defer store.Close()

	id, err := store.CreateTemplate(ctx, SampleTemplate())
	require.NoError(t, err)

	got, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)

	got.Name = "Lease v2"
	got.Document = []byte("tampered")
	got.RemoveField("custom_1")
	require.NoError(t, store.UpdateTemplate(ctx, got))

	after, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Lease v2", after.Name)
	assert.Equal(t, []byte("%PDF-1.7 sample"), after.Document)
	assert.Len(t, after.Fields, 1)
	assert.Len(t, after.Mappings, 1, "mapping removed with its field")
}

func testRejectsInconsistent(t *testing.T, store storage.Store) {
	ctx := context.Background()
	defer store.Close()

	id, err := store.CreateTemplate(ctx, SampleTemplate())
	require.NoError(t, err)

	got, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)
	got.Mappings = append(got.Mappings, model.Mapping{TemplateFieldID: "gone", ProfileKey: "X"})
	assert.Error(t, store.UpdateTemplate(ctx, got))

	after, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)
	assert.Len(t, after.Mappings, 2)
}

func testNotFound(t *testing.T, store storage.Store) {
	ctx := context.Background()
	defer store.Close()

	_, err := store.GetProfile(ctx, 404)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.True(t, errors.Is(store.DeleteProfile(ctx, 404), storage.ErrNotFound))
	assert.True(t, errors.Is(store.UpdateProfile(ctx, &model.Profile{ID: 404, Name: "x"}), storage.ErrNotFound))

	_, err = store.GetTemplate(ctx, 404)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.True(t, errors.Is(store.DeleteTemplate(ctx, 404), storage.ErrNotFound))
	missing := SampleTemplate()
	missing.ID = 404
	assert.True(t, errors.Is(store.UpdateTemplate(ctx, missing), storage.ErrNotFound))
}

func testSubscriptions(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	profiles, err := store.SubscribeProfiles(ctx)
	require.NoError(t, err)
	templates, err := store.SubscribeTemplates(ctx)
	require.NoError(t, err)

	assert.Empty(t, receive(t, profiles))
	assert.Empty(t, receive(t, templates))

	_, err = store.CreateProfile(ctx, &model.Profile{Name: "Jane"})
	require.NoError(t, err)
	snapshot := receive(t, profiles)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Jane", snapshot[0].Name)

	_, err = store.CreateTemplate(ctx, SampleTemplate())
	require.NoError(t, err)
	tpls := receive(t, templates)
	require.Len(t, tpls, 1)
	assert.Equal(t, "Lease", tpls[0].Name)

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-profiles
		return !open
	}, time.Second, 10*time.Millisecond)
}

func testSubscriptionConverges(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const writers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := store.CreateProfile(ctx, &model.Profile{Name: fmt.Sprintf("writer-%d", i)})
			assert.NoError(t, err)
		}(i)
	}

	close(start)
	profiles, err := store.SubscribeProfiles(ctx)
	require.NoError(t, err)
	wg.Wait()

	// Every write is reflected in the latest snapshot without a further write.
	var latest []model.Profile
	require.Eventually(t, func() bool {
		for {
			select {
			case snapshot := <-profiles:
				latest = snapshot
			default:
				return len(latest) == writers
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for snapshot")
	}
	var zero T
	return zero
}
