package client

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPaths(t *testing.T) {

	client := NewWithRouter(nil)

	collection := client.Collection("fan_pages")
	if p := collection.CollectionPath(); p != "/fan_pages/" {
		t.Fatal("unexpected collection path:", p)
	}

	item := collection.Item(17)
	if p := item.Path(); p != "/fan_pages/17" {
		t.Fatal("unexpected item path:", p)
	}

	collection = client.Collection("/roles/").WithSkip(2).WithLimit(5)
	if p := collection.CollectionPath(); p != "/roles/?skip=2&limit=5" {
		t.Fatal("unexpected collection path:", p)
	}

	// parameters must not leak into the collection they were derived from
	base := client.Collection("personas").WithSkip(1)
	_ = base.WithLimit(3)
	if p := base.CollectionPath(); p != "/personas/?skip=1" {
		t.Fatal("unexpected collection path:", p)
	}
}

func TestClientThroughRouter(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/things/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"thing_id":1}`))
	}).Methods(http.MethodPost)
	router.HandleFunc("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "thing not found", http.StatusNotFound)
	}).Methods(http.MethodGet)
	router.HandleFunc("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"thing_id":1}`))
	}).Methods(http.MethodDelete)

	client := NewWithRouter(router).WithHeader("X-Test", "yes")
	things := client.Collection("things")

	var created struct {
		ThingID int64 `json:"thing_id"`
	}
	status, err := things.Create(map[string]string{"name": "a"}, &created)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, int64(1), created.ThingID)

	status, err = things.Item(1).Read(nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, err.Error(), "thing not found")

	var raw []byte
	status, err = things.Item(1).Delete(&raw)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"thing_id":1}`, string(raw))
}
