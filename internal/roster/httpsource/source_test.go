package httpsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-testutil"
)

func TestDecode(t *testing.T) {
	tests := map[string]struct {
		body          string
		expIDs        []int
		expMain       *int
		expParameters map[string]string
		expErr        string
	}{
		"three users": {
			body:   `{"main":{"parameters":[],"main_avatar":null,"users":[{"id":0,"code":"a"},{"id":1,"code":"b"},{"id":2,"code":"c"}]}}`,
			expIDs: []int{0, 1, 2},
		},
		"main avatar and parameters": {
			body:          `{"main":{"parameters":[{"name":"pickups","value":3},{"name":"mode","value":"fast"}],"main_avatar":7,"users":[{"id":7,"code":"x"}]}}`,
			expIDs:        []int{7},
			expMain:       intPtr(7),
			expParameters: map[string]string{"pickups": "3", "mode": "fast"},
		},
		"missing main": {
			body:   `{"users":[]}`,
			expErr: "validating",
		},
		"bad user id": {
			body:   `{"main":{"users":[{"id":"one","code":"a"}]}}`,
			expErr: "validating",
		},
		"not json": {
			body:   `<html>`,
			expErr: "decoding",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := Decode([]byte(tt.body))
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			testutil.AssertEqual(t, "err", err, nil)

			ids := r.IDs()
			testutil.AssertEqual(t, "count", len(ids), len(tt.expIDs))
			for i := range ids {
				testutil.AssertEqual(t, "id", ids[i], tt.expIDs[i])
			}
			testutil.AssertEqual(t, "main set", r.MainAvatar != nil, tt.expMain != nil)
			if tt.expMain != nil {
				testutil.AssertEqual(t, "main", *r.MainAvatar, *tt.expMain)
			}
			for k, v := range tt.expParameters {
				testutil.AssertEqual(t, "parameter "+k, r.Participants[0].Parameters[k], v)
			}
		})
	}
}

func TestSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"main":{"users":[{"id":4,"code":"wait"}]}}`))
	}))
	defer srv.Close()

	s, err := New(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := s.Fetch(context.Background())
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "participants", len(r.Participants), 1)
	testutil.AssertEqual(t, "code", r.Participants[0].Code, "wait")
}

func TestSource_FetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := New(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.Fetch(context.Background())

	var fe *roster.FetchError
	testutil.AssertEqual(t, "fetch error", errors.As(err, &fe), true)
	testutil.AssertErrorContains(t, err, "unexpected status 500")
}

func intPtr(v int) *int { return &v }
