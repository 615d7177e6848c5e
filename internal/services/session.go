package services

import (
	"sync"
	"time"

	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// upload is one prepared register held by a session.
type upload struct {
	filename string
	table    *dataprocessing.Table
	stats    dataprocessing.PrepareStats
	cached   bool
	at       time.Time
}

// session is the state of one analysis. version increases with every
// upload; dataset is only valid while builtVersion equals version.
type session struct {
	id        string
	createdAt time.Time

	mu           sync.Mutex
	uploads      map[domain.Source]*upload
	version      uint64
	dataset      *dataprocessing.Dataset
	builtVersion uint64
	buildErr     error
}

func newSession(id string) *session {
	return &session{
		id:        id,
		createdAt: time.Now(),
		uploads:   make(map[domain.Source]*upload, 2),
	}
}

// store records u for source and returns the new version together with
// both uploads when the pair is complete.
func (s *session) store(source domain.Source, u *upload) (version uint64, claims, outstanding *upload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads[source] = u
	s.version++
	return s.version, s.uploads[domain.SourceClaims], s.uploads[domain.SourceOutstanding]
}

// commit installs the result of a build started at version. It reports
// false and changes nothing when a newer upload arrived meanwhile.
func (s *session) commit(version uint64, ds *dataprocessing.Dataset, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return false
	}
	s.dataset, s.buildErr = ds, err
	s.builtVersion = version
	return true
}

// current returns the dataset when it reflects the latest upload.
func (s *session) current() (*dataprocessing.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset == nil || s.builtVersion != s.version {
		if s.buildErr != nil && s.builtVersion == s.version {
			return nil, &notReadyError{cause: s.buildErr}
		}
		return nil, ErrDatasetNotReady
	}
	return s.dataset, nil
}

// notReadyError is ErrDatasetNotReady carrying the failed build's error.
type notReadyError struct {
	cause error
}

func (e *notReadyError) Error() string {
	return ErrDatasetNotReady.Error() + ": " + e.cause.Error()
}

func (e *notReadyError) Is(target error) bool { return target == ErrDatasetNotReady }

func (e *notReadyError) Unwrap() error { return e.cause }
