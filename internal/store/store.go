// Package store persists the report list. It prefers the remote report API
// and degrades to local durable storage whenever the API cannot be used.
//
// Every write is a whole-list snapshot on both backends, and deletion is
// read, filter, write. Operations never return storage errors directly;
// they return a Result that tells the caller which backend served them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangang/problempad/internal/report"
	"github.com/huangang/problempad/pkg/logger"
)

var (
	// ErrReportNotFound is returned when an id is not in the collection.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoRemote is recorded as the remote error when the store runs offline.
	ErrNoRemote = errors.New("no remote API configured")
)

// remoteIDsSuffix names the key that lists which locally stored reports
// were read from the remote API.
const remoteIDsSuffix = "_remote_ids"

// Store is the backend-agnostic report collection.
type Store struct {
	remote Remote
	local  LocalStorage
	key    string
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the local storage key (default DefaultStorageKey).
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New creates a store. remote may be nil to run purely on local storage.
func New(remote Remote, local LocalStorage, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		local:  local,
		key:    DefaultStorageKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadAll returns the whole collection. The slice is never nil.
func (s *Store) ReadAll(ctx context.Context) ([]report.Report, Result) {
	remoteErr := ErrNoRemote
	if s.remote != nil {
		reports, err := s.remote.List(ctx)
		if err == nil {
			return nonNil(reports), remoteResult()
		}
		remoteErr = err
		logger.Debug().Err(err).Msg("remote read failed, reading local storage")
	}

	reports, err := s.readLocal(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("key", s.key).Msg("local storage unreadable, using empty list")
		return []report.Report{}, failedResult(remoteErr, err)
	}
	return reports, fallbackResult(remoteErr)
}

// WriteAll replaces the whole collection with reports.
func (s *Store) WriteAll(ctx context.Context, reports []report.Report) Result {
	return s.write(ctx, nonNil(reports), nil)
}

// Append adds reports to the end of the collection with a single write.
// Nothing is written if the current collection could not be read, so an
// unreadable local list is never silently replaced.
func (s *Store) Append(ctx context.Context, reports ...report.Report) Result {
	current, res := s.ReadAll(ctx)
	if res.Outcome == OutcomeFailed {
		return res
	}

	next := make([]report.Report, 0, len(current)+len(reports))
	next = append(next, current...)
	next = append(next, reports...)
	return s.writeBack(ctx, next, current, res)
}

// Find returns the report with the given id, or nil when there is none.
func (s *Store) Find(ctx context.Context, id string) (*report.Report, Result) {
	reports, res := s.ReadAll(ctx)
	for i := range reports {
		if reports[i].ID == id {
			return &reports[i], res
		}
	}
	return nil, res
}

// DeleteByID removes the report with the given id and keeps the others in
// their original order. It returns ErrReportNotFound, without writing, when
// the id is not in the collection.
func (s *Store) DeleteByID(ctx context.Context, id string) (Result, error) {
	reports, res := s.ReadAll(ctx)
	if res.Outcome == OutcomeFailed {
		return res, nil
	}

	remaining := make([]report.Report, 0, len(reports))
	for _, r := range reports {
		if r.ID != id {
			remaining = append(remaining, r)
		}
	}
	if len(remaining) == len(reports) {
		return res, ErrReportNotFound
	}

	return s.writeBack(ctx, remaining, reports, res), nil
}

// writeBack stores a list derived from a read on the backend that served
// that read. A list built from the local copy never reaches the remote API,
// where it would overwrite reports the local copy does not know about.
func (s *Store) writeBack(ctx context.Context, reports, read []report.Report, readRes Result) Result {
	if readRes.Outcome == OutcomeFallback {
		return s.saveLocal(ctx, reports, nil, readRes.RemoteErr)
	}
	return s.write(ctx, reports, read)
}

// write tries the remote API and falls back to local storage. fromRemote is
// the remote list the snapshot was built from, if any.
func (s *Store) write(ctx context.Context, reports, fromRemote []report.Report) Result {
	remoteErr := ErrNoRemote
	if s.remote != nil {
		err := s.remote.Replace(ctx, reports)
		if err == nil {
			return remoteResult()
		}
		remoteErr = err
		logger.Debug().Err(err).Msg("remote write failed, writing local storage")
	}
	return s.saveLocal(ctx, reports, fromRemote, remoteErr)
}

func (s *Store) saveLocal(ctx context.Context, reports, fromRemote []report.Report, remoteErr error) Result {
	if err := s.writeLocal(ctx, reports, fromRemote); err != nil {
		logger.Error().Err(err).Str("key", s.key).Msg("local storage write failed")
		return failedResult(remoteErr, err)
	}
	return fallbackResult(remoteErr)
}

// Clear empties the collection.
func (s *Store) Clear(ctx context.Context) Result {
	return s.WriteAll(ctx, nil)
}

// SyncLocal pushes reports that only exist in local storage to the remote
// API and then drops the local copy. Reports the local copy took from an
// earlier remote read are not pushed, so reports deleted on the server stay
// deleted. It returns how many reports were pushed. The remote must be
// reachable; nothing is changed otherwise.
func (s *Store) SyncLocal(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrNoRemote
	}

	local, err := s.readLocal(ctx)
	if err != nil {
		return 0, fmt.Errorf("read local storage: %w", err)
	}
	if len(local) == 0 {
		return 0, nil
	}

	remote, err := s.remote.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("read remote: %w", err)
	}

	seen := s.readRemoteIDs(ctx)
	for _, r := range remote {
		seen[r.ID] = true
	}

	merged := append([]report.Report{}, remote...)
	pushed := 0
	for _, r := range local {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		merged = append(merged, r)
		pushed++
	}

	if pushed > 0 {
		if err := s.remote.Replace(ctx, merged); err != nil {
			return 0, fmt.Errorf("write remote: %w", err)
		}
	}

	if err := s.local.Remove(ctx, s.key); err != nil {
		return pushed, fmt.Errorf("clear local storage: %w", err)
	}
	if err := s.local.Remove(ctx, s.remoteIDsKey()); err != nil {
		logger.Warn().Err(err).Msg("failed to clear remote id list")
	}
	logger.Info().Int("pushed", pushed).Msg("local reports synced to remote")
	return pushed, nil
}

// readLocal returns an empty list when the key is missing.
func (s *Store) readLocal(ctx context.Context) ([]report.Report, error) {
	if s.local == nil {
		return nil, errors.New("no local storage configured")
	}

	data, ok, err := s.local.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		return []report.Report{}, nil
	}

	var reports []report.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("decode local report list: %w", err)
	}
	return nonNil(reports), nil
}

// writeLocal stores the list and, next to it, the ids in it that came from
// the remote API: those already recorded plus the ids of fromRemote.
func (s *Store) writeLocal(ctx context.Context, reports, fromRemote []report.Report) error {
	if s.local == nil {
		return errors.New("no local storage configured")
	}

	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encode report list: %w", err)
	}

	known := s.readRemoteIDs(ctx)
	for _, r := range fromRemote {
		known[r.ID] = true
	}
	ids := make([]string, 0, len(known))
	for _, r := range reports {
		if known[r.ID] {
			ids = append(ids, r.ID)
		}
	}

	if err := s.local.Set(ctx, s.key, data); err != nil {
		return err
	}
	if len(ids) == 0 {
		return s.local.Remove(ctx, s.remoteIDsKey())
	}
	idData, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode remote id list: %w", err)
	}
	return s.local.Set(ctx, s.remoteIDsKey(), idData)
}

func (s *Store) remoteIDsKey() string {
	return s.key + remoteIDsSuffix
}

// readRemoteIDs returns the ids recorded as remote-origin. A missing or
// unreadable record counts as empty.
func (s *Store) readRemoteIDs(ctx context.Context) map[string]bool {
	known := make(map[string]bool)
	if s.local == nil {
		return known
	}
	data, ok, err := s.local.Get(ctx, s.remoteIDsKey())
	if err != nil || !ok {
		return known
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		logger.Warn().Err(err).Msg("remote id list unreadable, ignoring it")
		return known
	}
	for _, id := range ids {
		known[id] = true
	}
	return known
}

func nonNil(reports []report.Report) []report.Report {
	if reports == nil {
		return []report.Report{}
	}
	return reports
}
