package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangang/problempad/internal/report"
)

// fakeAPI is an in-memory stand-in for the report API.
type fakeAPI struct {
	mu       sync.Mutex
	reports  []report.Report
	status   int // non-zero forces every response to this status
	getFail  int // non-zero fails only GET with this status
	putFail  int // non-zero fails only PUT with this status
	garbage  bool
	delay    time.Duration
	replaces int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"code":500,"message":"boom"}`))
		return
	}
	if r.URL.Path != "/api/reports" {
		http.NotFound(w, r)
		return
	}
	if (r.Method == http.MethodGet && f.getFail != 0) || (r.Method == http.MethodPut && f.putFail != 0) {
		code := f.getFail
		if r.Method == http.MethodPut {
			code = f.putFail
		}
		w.WriteHeader(code)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if f.garbage {
			w.Write([]byte(`<html>not json</html>`))
			return
		}
		list := f.reports
		if list == nil {
			list = []report.Report{}
		}
		json.NewEncoder(w).Encode(list)
	case http.MethodPut:
		var list []report.Report
		if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.reports = list
		f.replaces++
		w.Write([]byte(`{"ok":true}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeRemote(t *testing.T, api *fakeAPI) *RemoteClient {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewRemoteClient(srv.URL, 2*time.Second)
}

// unreachableRemote points at a server that has already been shut down.
func unreachableRemote(t *testing.T) *RemoteClient {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return NewRemoteClient(url, time.Second)
}

func sampleReports() []report.Report {
	created := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return []report.Report{
		{ID: "a", StartupInfo: report.StartupInfo{Name: "Acme"}, Title: "Churn", Description: "users leave", Impact: 8, Created: created},
		{ID: "b", Title: "Pricing", Description: "too cheap", Impact: 3, Solution: "raise", Created: created.Add(time.Minute)},
		{ID: "c", Title: "", Description: "hiring is slow", Impact: 5, Created: created.Add(2 * time.Minute)},
	}
}

func assertSameReports(t *testing.T, got, want []report.Report) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d reports, expected %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Title != w.Title || g.Description != w.Description ||
			g.Impact != w.Impact || g.Solution != w.Solution || g.StartupInfo != w.StartupInfo ||
			!g.Created.Equal(w.Created) {
			t.Errorf("report[%d] = %+v, expected %+v", i, g, w)
		}
	}
}

func TestStore_WriteThenReadRemote(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	local := NewFileStorage(t.TempDir())
	s := New(newFakeRemote(t, api), local)

	want := sampleReports()
	if res := s.WriteAll(ctx, want); res.Outcome != OutcomeRemote {
		t.Fatalf("WriteAll outcome = %v, expected remote (remote err %v)", res.Outcome, res.RemoteErr)
	}

	got, res := s.ReadAll(ctx)
	if res.Outcome != OutcomeRemote {
		t.Fatalf("ReadAll outcome = %v, expected remote", res.Outcome)
	}
	assertSameReports(t, got, want)

	if _, ok, _ := local.Get(ctx, DefaultStorageKey); ok {
		t.Error("local storage should not be touched while the remote works")
	}
}

func TestStore_DeleteByIDKeepsOrder(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{reports: sampleReports()}
	s := New(newFakeRemote(t, api), NewFileStorage(t.TempDir()))

	res, err := s.DeleteByID(ctx, "b")
	if err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if res.Outcome != OutcomeRemote {
		t.Errorf("outcome = %v, expected remote", res.Outcome)
	}

	got, _ := s.ReadAll(ctx)
	all := sampleReports()
	assertSameReports(t, got, []report.Report{all[0], all[2]})
}

func TestStore_DeleteUnknownIDDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{reports: sampleReports()}
	s := New(newFakeRemote(t, api), NewFileStorage(t.TempDir()))

	_, err := s.DeleteByID(ctx, "zzz")
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if api.replaces != 0 {
		t.Errorf("expected no write, got %d", api.replaces)
	}
}

func TestStore_FallbackRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(unreachableRemote(t), NewFileStorage(t.TempDir()))

	want := sampleReports()
	res := s.WriteAll(ctx, want)
	if res.Outcome != OutcomeFallback {
		t.Fatalf("WriteAll outcome = %v, expected fallback", res.Outcome)
	}
	if res.RemoteErr == nil {
		t.Error("fallback result should carry the remote error")
	}
	if res.Err() != nil {
		t.Errorf("fallback is not a failure, Err() = %v", res.Err())
	}

	got, res := s.ReadAll(ctx)
	if res.Outcome != OutcomeFallback {
		t.Fatalf("ReadAll outcome = %v, expected fallback", res.Outcome)
	}
	assertSameReports(t, got, want)

	if _, err := s.DeleteByID(ctx, "a"); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	got, _ = s.ReadAll(ctx)
	assertSameReports(t, got, want[1:])
}

func TestStore_RemoteFailuresFallBack(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{"server error", &fakeAPI{status: http.StatusInternalServerError}},
		{"not found", &fakeAPI{status: http.StatusNotFound}},
		{"malformed body", &fakeAPI{garbage: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			local := NewFileStorage(t.TempDir())
			data, _ := json.Marshal(sampleReports()[:1])
			if err := local.Set(ctx, DefaultStorageKey, data); err != nil {
				t.Fatal(err)
			}

			s := New(newFakeRemote(t, tt.api), local)
			got, res := s.ReadAll(ctx)
			if res.Outcome != OutcomeFallback {
				t.Fatalf("outcome = %v, expected fallback", res.Outcome)
			}
			assertSameReports(t, got, sampleReports()[:1])
		})
	}
}

func TestStore_StatusErrorIsRecorded(t *testing.T) {
	s := New(newFakeRemote(t, &fakeAPI{status: http.StatusServiceUnavailable}), NewFileStorage(t.TempDir()))
	_, res := s.ReadAll(context.Background())

	var statusErr *StatusError
	if !errors.As(res.RemoteErr, &statusErr) {
		t.Fatalf("expected *StatusError, got %T", res.RemoteErr)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %d, expected 503", statusErr.Code)
	}
}

func TestStore_SlowRemoteTimesOut(t *testing.T) {
	api := &fakeAPI{delay: 300 * time.Millisecond}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	s := New(NewRemoteClient(srv.URL, 50*time.Millisecond), NewFileStorage(t.TempDir()))
	start := time.Now()
	_, res := s.ReadAll(context.Background())
	if res.Outcome != OutcomeFallback {
		t.Errorf("outcome = %v, expected fallback", res.Outcome)
	}
	if time.Since(start) > 250*time.Millisecond {
		t.Errorf("read took %v, timeout not applied", time.Since(start))
	}
}

func TestStore_MissingLocalKeyIsEmpty(t *testing.T) {
	s := New(unreachableRemote(t), NewFileStorage(t.TempDir()))
	got, res := s.ReadAll(context.Background())

	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %v", got)
	}
	if res.Outcome != OutcomeFallback || res.Err() != nil {
		t.Errorf("result = %+v, expected clean fallback", res)
	}
}

func TestStore_CorruptLocalData(t *testing.T) {
	ctx := context.Background()
	local := NewFileStorage(t.TempDir())
	if err := local.Set(ctx, DefaultStorageKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	s := New(unreachableRemote(t), local)

	got, res := s.ReadAll(ctx)
	if len(got) != 0 {
		t.Errorf("expected empty list, got %d reports", len(got))
	}
	if res.Outcome != OutcomeFailed || res.LocalErr == nil || res.Err() == nil {
		t.Errorf("result = %+v, expected failure with local error", res)
	}

	// Appending must not clobber the unreadable data.
	if res := s.Append(ctx, sampleReports()[0]); res.Outcome != OutcomeFailed {
		t.Errorf("Append outcome = %v, expected failed", res.Outcome)
	}
	data, _, _ := local.Get(ctx, DefaultStorageKey)
	if string(data) != "{not json" {
		t.Errorf("local data was overwritten: %q", data)
	}
}

func TestStore_LocalWriteFailure(t *testing.T) {
	// A regular file where the storage directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := New(unreachableRemote(t), NewFileStorage(filepath.Join(blocker, "data")))

	res := s.WriteAll(context.Background(), sampleReports())
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, expected failed", res.Outcome)
	}
	if res.RemoteErr == nil || res.LocalErr == nil {
		t.Errorf("both errors should be recorded: %+v", res)
	}
	if res.Err() == nil {
		t.Error("Err() should be non-nil for a failed result")
	}
}

func TestStore_AppendSnapshot(t *testing.T) {
	ctx := context.Background()
	all := sampleReports()
	api := &fakeAPI{reports: all[:1]}
	s := New(newFakeRemote(t, api), NewFileStorage(t.TempDir()))

	if res := s.Append(ctx, all[1], all[2]); res.Outcome != OutcomeRemote {
		t.Fatalf("Append outcome = %v", res.Outcome)
	}
	if api.replaces != 1 {
		t.Errorf("expected one snapshot write, got %d", api.replaces)
	}

	got, _ := s.ReadAll(ctx)
	assertSameReports(t, got, all)
}

func (f *fakeAPI) snapshot() []report.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]report.Report{}, f.reports...)
}

func TestStore_AppendAfterFailedReadStaysLocal(t *testing.T) {
	ctx := context.Background()
	all := sampleReports()
	api := &fakeAPI{reports: all[:2], getFail: http.StatusServiceUnavailable}
	s := New(newFakeRemote(t, api), NewFileStorage(t.TempDir()))

	res := s.Append(ctx, all[2])
	if res.Outcome != OutcomeFallback {
		t.Fatalf("Append outcome = %v, expected fallback", res.Outcome)
	}
	if api.replaces != 0 {
		t.Errorf("a list built from local storage must not be sent to the API, got %d writes", api.replaces)
	}
	assertSameReports(t, api.snapshot(), all[:2])

	api.mu.Lock()
	api.getFail = 0
	api.status = http.StatusBadGateway
	api.mu.Unlock()
	got, _ := s.ReadAll(ctx)
	assertSameReports(t, got, all[2:])
}

func TestStore_DeleteAfterFailedReadStaysLocal(t *testing.T) {
	ctx := context.Background()
	all := sampleReports()
	local := NewFileStorage(t.TempDir())
	data, _ := json.Marshal(all[1:])
	if err := local.Set(ctx, DefaultStorageKey, data); err != nil {
		t.Fatal(err)
	}
	api := &fakeAPI{reports: all[:2], getFail: http.StatusBadGateway}
	s := New(newFakeRemote(t, api), local)

	res, err := s.DeleteByID(ctx, "b")
	if err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if res.Outcome != OutcomeFallback {
		t.Fatalf("DeleteByID outcome = %v, expected fallback", res.Outcome)
	}
	if api.replaces != 0 {
		t.Errorf("API must not be written, got %d writes", api.replaces)
	}
	assertSameReports(t, api.snapshot(), all[:2])

	got, _ := s.ReadAll(ctx)
	assertSameReports(t, got, all[2:])
}

func TestStore_SyncSkipsReportsDeletedOnServer(t *testing.T) {
	ctx := context.Background()
	all := sampleReports()
	api := &fakeAPI{reports: all[:1], putFail: http.StatusInternalServerError}
	s := New(newFakeRemote(t, api), NewFileStorage(t.TempDir()))

	// The read comes from the API, the write lands locally.
	if res := s.Append(ctx, all[1]); res.Outcome != OutcomeFallback {
		t.Fatalf("Append outcome = %v, expected fallback", res.Outcome)
	}

	// Report a is deleted on the server before the user syncs.
	api.mu.Lock()
	api.reports = nil
	api.putFail = 0
	api.mu.Unlock()

	pushed, err := s.SyncLocal(ctx)
	if err != nil {
		t.Fatalf("SyncLocal() error = %v", err)
	}
	if pushed != 1 {
		t.Errorf("pushed = %d, expected 1", pushed)
	}
	assertSameReports(t, api.snapshot(), all[1:2])

	if _, ok, _ := s.local.Get(ctx, s.remoteIDsKey()); ok {
		t.Error("remote id list should be removed after sync")
	}
}

func TestStore_FindAndClear(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{reports: sampleReports()}
	s := New(newFakeRemote(t, api), NewFileStorage(t.TempDir()))

	r, _ := s.Find(ctx, "b")
	if r == nil || r.Title != "Pricing" {
		t.Fatalf("Find(b) = %+v", r)
	}
	if r, _ := s.Find(ctx, "nope"); r != nil {
		t.Errorf("Find(nope) = %+v, expected nil", r)
	}

	if res := s.Clear(ctx); res.Outcome != OutcomeRemote {
		t.Fatalf("Clear outcome = %v", res.Outcome)
	}
	got, _ := s.ReadAll(ctx)
	if len(got) != 0 {
		t.Errorf("expected empty collection after Clear, got %d", len(got))
	}
}

func TestStore_OfflineWithSQLite(t *testing.T) {
	ctx := context.Background()
	local, err := OpenSQLiteStorage(filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStorage() error = %v", err)
	}
	defer local.Close()

	s := New(nil, local, WithKey("custom_key"))
	want := sampleReports()
	res := s.WriteAll(ctx, want)
	if res.Outcome != OutcomeFallback || !errors.Is(res.RemoteErr, ErrNoRemote) {
		t.Fatalf("result = %+v, expected fallback with ErrNoRemote", res)
	}

	got, _ := s.ReadAll(ctx)
	assertSameReports(t, got, want)

	if _, ok, _ := local.Get(ctx, "custom_key"); !ok {
		t.Error("custom key should have been written")
	}
}

func TestStore_SyncLocal(t *testing.T) {
	ctx := context.Background()
	all := sampleReports()
	local := NewFileStorage(t.TempDir())
	data, _ := json.Marshal([]report.Report{all[0], all[1]})
	if err := local.Set(ctx, DefaultStorageKey, data); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{reports: []report.Report{all[2], all[0]}}
	s := New(newFakeRemote(t, api), local)

	pushed, err := s.SyncLocal(ctx)
	if err != nil {
		t.Fatalf("SyncLocal() error = %v", err)
	}
	if pushed != 1 {
		t.Errorf("pushed = %d, expected 1", pushed)
	}

	got, _ := s.ReadAll(ctx)
	assertSameReports(t, got, []report.Report{all[2], all[0], all[1]})

	if _, ok, _ := local.Get(ctx, DefaultStorageKey); ok {
		t.Error("local copy should be removed after sync")
	}
}

func TestStore_SyncLocalNeedsRemote(t *testing.T) {
	ctx := context.Background()
	local := NewFileStorage(t.TempDir())
	data, _ := json.Marshal(sampleReports())
	local.Set(ctx, DefaultStorageKey, data)

	s := New(unreachableRemote(t), local)
	if _, err := s.SyncLocal(ctx); err == nil {
		t.Fatal("expected error with unreachable remote")
	}
	if _, ok, _ := local.Get(ctx, DefaultStorageKey); !ok {
		t.Error("local copy must survive a failed sync")
	}

	if _, err := New(nil, local).SyncLocal(ctx); !errors.Is(err, ErrNoRemote) {
		t.Errorf("expected ErrNoRemote, got %v", err)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeRemote:   "remote",
		OutcomeFallback: "fallback",
		OutcomeFailed:   "failed",
		Outcome(42):     "unknown",
	}
	for o, want := range tests {
		if o.String() != want {
			t.Errorf("Outcome(%d).String() = %q, expected %q", o, o.String(), want)
		}
	}
}

func TestStore_LocalListWithOffsetlessCreated(t *testing.T) {
	ctx := context.Background()
	local := NewFileStorage(t.TempDir())
	data := `[{"id":"a","title":"t1","created":"2024-01-01T00:00:00Z"},` +
		`{"id":"b","title":"t2","created":"2024-01-01T10:00:00"},` +
		`{"id":"c","title":"t3","created":"2024-01-02"}]`
	if err := local.Set(ctx, DefaultStorageKey, []byte(data)); err != nil {
		t.Fatal(err)
	}

	s := New(nil, local)
	got, res := s.ReadAll(ctx)
	if res.Outcome != OutcomeFallback {
		t.Fatalf("outcome = %v, expected fallback (local err %v)", res.Outcome, res.LocalErr)
	}
	if len(got) != 3 {
		t.Fatalf("got %d reports, expected 3", len(got))
	}
	if want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC); !got[1].Created.Equal(want) {
		t.Errorf("created = %v, expected %v", got[1].Created, want)
	}

	if res, err := s.DeleteByID(ctx, "a"); err != nil || res.Outcome != OutcomeFallback {
		t.Errorf("DeleteByID = %+v, %v", res, err)
	}
}
