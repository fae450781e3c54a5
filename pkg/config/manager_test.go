package config

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	data        map[string]interface{}
	validateErr error
	setErr      error
}

func (m *mockSection) ID() string                   { return m.id }
func (m *mockSection) Title() string                { return m.id }
func (m *mockSection) Description() string          { return "" }
func (m *mockSection) Data() map[string]interface{} { return m.data }
func (m *mockSection) Validate() error              { return m.validateErr }
func (m *mockSection) Reset()                       { m.data = make(map[string]interface{}) }

func (m *mockSection) SetData(data map[string]interface{}) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data = data
	return nil
}

// mockStore is a test implementation of the Store interface
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saved    int
}

func newMockStore() *mockStore {
	return &mockStore{sections: make(map[string]map[string]interface{})}
}

func (m *mockStore) Load() error { return m.loadErr }

func (m *mockStore) Save() error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved++
	return nil
}

func (m *mockStore) GetSection(id string) (map[string]interface{}, error) {
	return m.sections[id], nil
}

func (m *mockStore) SetSection(id string, data map[string]interface{}) error {
	m.sections[id] = data
	return nil
}

func (m *mockStore) GetAll() (map[string]map[string]interface{}, error) { return m.sections, nil }

func (m *mockStore) SetAll(data map[string]map[string]interface{}) error {
	m.sections = data
	return nil
}

func TestManager_RegisterSection(t *testing.T) {
	manager := NewManager(newMockStore())
	assert.Empty(t, manager.GetSections())

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, manager.RegisterSection(&mockSection{id: id}))
	}

	err := manager.RegisterSection(&mockSection{id: "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	var ids []string
	for _, s := range manager.GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)

	section, ok := manager.GetSection("second")
	require.True(t, ok)
	assert.Equal(t, "second", section.ID())

	_, ok = manager.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("hands stored data to sections", func(t *testing.T) {
		store := newMockStore()
		store.sections["a"] = map[string]interface{}{"key": "value"}
		manager := NewManager(store)

		a := &mockSection{id: "a"}
		b := &mockSection{id: "b", data: map[string]interface{}{"keep": true}}
		require.NoError(t, manager.RegisterSection(a))
		require.NoError(t, manager.RegisterSection(b))

		require.NoError(t, manager.LoadAll())
		assert.Equal(t, "value", a.data["key"])
		assert.Equal(t, true, b.data["keep"], "sections without stored data keep their values")
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMockStore()
		store.loadErr = errors.New("disk on fire")
		assert.Error(t, NewManager(store).LoadAll())
	})

	t.Run("section rejects data", func(t *testing.T) {
		store := newMockStore()
		store.sections["a"] = map[string]interface{}{"key": 1}
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "a", setErr: errors.New("bad")}))

		err := manager.LoadAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "section a")
	})
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("writes every section then saves", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "a", data: map[string]interface{}{"k": "v"}}))

		require.NoError(t, manager.SaveAll())
		assert.Equal(t, "v", store.sections["a"]["k"])
		assert.Equal(t, 1, store.saved)
	})

	t.Run("validation failure writes nothing", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "ok", data: map[string]interface{}{}}))
		require.NoError(t, manager.RegisterSection(&mockSection{id: "bad", validateErr: errors.New("nope")}))

		require.Error(t, manager.SaveAll())
		assert.Empty(t, store.sections)
		assert.Zero(t, store.saved)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMockStore()
		store.saveErr = errors.New("read-only")
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "a"}))

		assert.Error(t, manager.SaveAll())
	})
}

func TestManager_ResetAll(t *testing.T) {
	manager := NewManager(newMockStore())
	a := &mockSection{id: "a", data: map[string]interface{}{"k": "v"}}
	require.NoError(t, manager.RegisterSection(a))

	manager.ResetAll()
	assert.Empty(t, a.data)

	assert.NotPanics(t, func() { NewManager(newMockStore()).ResetAll() })
}

func TestManager_ConcurrentRegistration(t *testing.T) {
	manager := NewManager(newMockStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = manager.RegisterSection(&mockSection{id: fmt.Sprintf("section%d", i)})
			manager.GetSections()
		}(i)
	}
	wg.Wait()

	assert.Len(t, manager.GetSections(), 10)
}
