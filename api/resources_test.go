package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/seventv/cloudctl/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedServers(t *testing.T, pages int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/servers", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		assert.Equal(t, "env=prod", r.URL.Query().Get("label_selector"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}

		var next *int
		if page < pages {
			n := page + 1
			next = &n
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"servers": []map[string]any{
				{"id": page*10 + 1, "name": "s" + strconv.Itoa(page*10+1)},
				{"id": page*10 + 2, "name": "s" + strconv.Itoa(page*10+2)},
			},
			"meta": map[string]any{
				"pagination": map[string]any{
					"page":          page,
					"per_page":      2,
					"next_page":     next,
					"last_page":     pages,
					"total_entries": pages * 2,
				},
			},
		})
	}
}

func TestServers_ListSinglePage(t *testing.T) {
	c, _ := newTestClient(t, pagedServers(t, 3))

	servers, meta, err := c.Servers.List(context.Background(), ListOpts{Page: 2, PerPage: 2, LabelSelector: "env=prod"})
	require.NoError(t, err)

	require.Len(t, servers, 2)
	assert.Equal(t, int64(21), servers[0].ID)
	require.NotNil(t, meta.Pagination)
	assert.Equal(t, 2, meta.Pagination.Page)
	require.NotNil(t, meta.Pagination.NextPage)
	assert.Equal(t, 3, *meta.Pagination.NextPage)
}

func TestServers_All(t *testing.T) {
	c, _ := newTestClient(t, pagedServers(t, 3))

	servers, err := c.Servers.All(context.Background(), ListOpts{PerPage: 2, LabelSelector: "env=prod"})
	require.NoError(t, err)

	ids := make([]int64, 0, len(servers))
	for _, s := range servers {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int64{11, 12, 21, 22, 31, 32}, ids)
}

func TestIterator_Page(t *testing.T) {
	c, _ := newTestClient(t, pagedServers(t, 2))

	it := NewIterator[Server](c.Servers.List, ListOpts{PerPage: 2, LabelSelector: "env=prod"})
	assert.Equal(t, Pagination{}, it.Page())

	pages := []int{}
	for it.Next(context.Background()) {
		pages = append(pages, it.Page().Page)
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []int{1, 1, 2, 2}, pages)
	assert.Nil(t, it.Page().NextPage)
	require.NotNil(t, it.Page().TotalEntries)
	assert.Equal(t, 4, *it.Page().TotalEntries)
}

func TestIterator(t *testing.T) {
	boom := errors.New("boom")

	testCases := []struct {
		name     string
		pages    map[int][]int
		next     map[int]int
		failOn   int
		expected []int
		err      error
	}{
		{
			name:     "single page without metadata",
			pages:    map[int][]int{1: {1, 2}},
			expected: []int{1, 2},
		},
		{
			name:     "follows next page",
			pages:    map[int][]int{1: {1}, 2: {2}, 3: {3}},
			next:     map[int]int{1: 2, 2: 3},
			expected: []int{1, 2, 3},
		},
		{
			name:     "skips empty pages",
			pages:    map[int][]int{1: {1}, 2: {}, 3: {3}},
			next:     map[int]int{1: 2, 2: 3},
			expected: []int{1, 3},
		},
		{
			name:     "stops on a next page that does not advance",
			pages:    map[int][]int{1: {1}, 2: {2}},
			next:     map[int]int{1: 2, 2: 1},
			expected: []int{1, 2},
		},
		{
			name:     "error mid-way keeps what was read",
			pages:    map[int][]int{1: {1, 2}},
			next:     map[int]int{1: 2},
			failOn:   2,
			expected: []int{1, 2},
			err:      boom,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetch := func(_ context.Context, opts ListOpts) ([]int, Meta, error) {
				if opts.Page == tc.failOn {
					return nil, Meta{}, boom
				}

				var meta Meta
				if n, ok := tc.next[opts.Page]; ok {
					meta.Pagination = &Pagination{Page: opts.Page, NextPage: &n}
				}

				return tc.pages[opts.Page], meta, nil
			}

			got, err := All[int](context.Background(), fetch, ListOpts{})
			assert.Equal(t, tc.expected, got)
			assert.ErrorIs(t, err, tc.err)
			if tc.err == nil {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServers_CreateAndActions(t *testing.T) {
	var created ServerCreateOpts
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/servers":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			writeJSON(w, http.StatusCreated, map[string]any{"server": map[string]any{"id": 7, "name": created.Name, "status": "initializing"}})
		case r.Method == http.MethodPost && r.URL.Path == "/servers/7/actions/reboot":
			writeJSON(w, http.StatusCreated, map[string]any{"action": map[string]any{"id": 99, "command": "reboot", "status": "running"}})
		case r.Method == http.MethodPut && r.URL.Path == "/servers/7":
			writeJSON(w, http.StatusOK, map[string]any{"server": map[string]any{"id": 7, "name": "renamed"}})
		case r.Method == http.MethodDelete && r.URL.Path == "/servers/7":
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "not_found", "message": "server not found"}})
		}
	})

	ctx := context.Background()

	s, err := c.Servers.Create(ctx, ServerCreateOpts{
		Name:       "web-1",
		ServerType: "cx11",
		Image:      "debian-12",
		Labels:     map[string]string{"env": "prod"},
		UserData:   "#cloud-config\n",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, "initializing", s.Status)
	assert.Equal(t, "cx11", created.ServerType)
	assert.Equal(t, "#cloud-config\n", created.UserData)
	assert.Equal(t, map[string]string{"env": "prod"}, created.Labels)

	a, err := c.Servers.Reboot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(99), a.ID)
	assert.Equal(t, ActionStatusRunning, a.Status)

	s, err = c.Servers.Update(ctx, 7, ServerUpdateOpts{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", s.Name)

	require.NoError(t, c.Servers.Delete(ctx, 7))

	_, err = c.Servers.Get(ctx, 8)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, types.ErrCodeAPINotFound, types.ErrorCode(err))
}

func TestVolumes_AttachDetach(t *testing.T) {
	var attach attachRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/volumes/3/actions/attach":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&attach))
			writeJSON(w, http.StatusCreated, map[string]any{"action": map[string]any{"id": 1, "command": "attach_volume", "status": "running"}})
		case "/volumes/3/actions/detach":
			writeJSON(w, http.StatusCreated, map[string]any{"action": map[string]any{"id": 2, "command": "detach_volume", "status": "success"}})
		case "/volumes/3":
			writeJSON(w, http.StatusOK, map[string]any{"volume": map[string]any{"id": 3, "name": "data", "size": 50, "server": 7}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	a, err := c.Volumes.Attach(ctx, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), attach.Server)
	assert.Equal(t, "attach_volume", a.Command)

	a, err = c.Volumes.Detach(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ActionStatusSuccess, a.Status)

	v, err := c.Volumes.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 50, v.Size)
	require.NotNil(t, v.Server)
	assert.Equal(t, int64(7), *v.Server)
}
