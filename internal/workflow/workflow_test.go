package workflow

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/phillip-england/jobcard/internal/reference"
	"github.com/phillip-england/jobcard/internal/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testData(t *testing.T) DataSet {
	t.Helper()
	table, err := reference.Load(strings.NewReader("PF Code,Weight\nSP-1,2\n"), "ref.csv", reference.Options{HeaderRow: 1, KeyColumn: "PF Code"})
	require.NoError(t, err)
	return DataSet{Reference: table, ReferenceName: "ref.csv"}
}

func TestHappyPath(t *testing.T) {
	s := newSession("id", "csrf", time.Now())
	assert.Equal(t, AwaitingAuth, s.State())

	require.NoError(t, s.Authenticate(" alice "))
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, AwaitingData, s.State())

	require.NoError(t, s.LoadData(testData(t)))
	assert.Equal(t, AwaitingJobInfo, s.State())

	art := &report.Artifact{Kind: report.KindJobCard, Name: "x.xlsx"}
	job := report.NewJobInfo("JC-1", "2024-01-01", "A")
	require.NoError(t, s.Complete(Result{Job: job, Spools: []string{"SP-1"}, Artifacts: []*report.Artifact{art}}))
	assert.Equal(t, ReportsReady, s.State())

	got, ok := s.Artifact(report.KindJobCard)
	require.True(t, ok)
	assert.Same(t, art, got)
	_, ok = s.Artifact(report.KindPickTicket)
	assert.False(t, ok)

	require.NoError(t, s.Back())
	assert.Equal(t, AwaitingJobInfo, s.State())
	assert.Nil(t, s.Result())
	draft, spools := s.Draft()
	assert.Equal(t, job, draft)
	assert.Equal(t, []string{"SP-1"}, spools)

	require.NoError(t, s.Back())
	assert.Equal(t, AwaitingData, s.State())

	s.Logout()
	assert.Equal(t, AwaitingAuth, s.State())
	assert.Empty(t, s.Username)
	assert.Nil(t, s.Data().Reference)
	_, spools = s.Draft()
	assert.Nil(t, spools)
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*Session)
		act   func(*Session) error
	}{
		{"load before login", func(*Session) {}, func(s *Session) error { return s.LoadData(DataSet{}) }},
		{"complete before login", func(*Session) {}, func(s *Session) error { return s.Complete(Result{}) }},
		{"back from login", func(*Session) {}, func(s *Session) error { return s.Back() }},
		{"complete before data", func(s *Session) { _ = s.Authenticate("a") }, func(s *Session) error { return s.Complete(Result{}) }},
		{"back from data", func(s *Session) { _ = s.Authenticate("a") }, func(s *Session) error { return s.Back() }},
		{"login twice", func(s *Session) { _ = s.Authenticate("a") }, func(s *Session) error { return s.Authenticate("b") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession("id", "csrf", time.Now())
			tc.setup(s)
			before := s.State()
			err := tc.act(s)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, s.State())
		})
	}
}

func TestLoadDataReplacesReports(t *testing.T) {
	s := newSession("id", "csrf", time.Now())
	require.NoError(t, s.Authenticate("a"))
	require.ErrorIs(t, s.LoadData(DataSet{}), ErrNoReference)
	require.NoError(t, s.LoadData(testData(t)))
	require.NoError(t, s.Complete(Result{Artifacts: []*report.Artifact{{Kind: report.KindJobCard}}}))

	require.NoError(t, s.LoadData(testData(t)))
	assert.Equal(t, AwaitingJobInfo, s.State())
	assert.Nil(t, s.Result())
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour, nil)
	store.now = func() time.Time { return clock }

	a, err := store.Create()
	require.NoError(t, err)
	b, err := store.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.CSRFToken, 64)
	for _, id := range []string{a.ID, b.ID} {
		require.NoError(t, store.Update(id, func(s *Session) error { return s.Authenticate("planner") }))
	}

	clock = clock.Add(50 * time.Minute)
	require.NoError(t, store.View(b.ID, func(*Session) {}))

	clock = clock.Add(20 * time.Minute)
	err = store.Update(a.ID, func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, store.Len())

	assert.Equal(t, 0, store.Sweep(clock))
	assert.Equal(t, 1, store.Sweep(clock.Add(2*time.Hour)))
	assert.Equal(t, 0, store.Len())
}

func TestStoreAnonymousSessionsExpireSooner(t *testing.T) {
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour, nil).LimitAnonymous(10*time.Minute, 0)
	store.now = func() time.Time { return clock }

	anon, err := store.Create()
	require.NoError(t, err)
	user, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.Update(user.ID, func(s *Session) error { return s.Authenticate("planner") }))

	clock = clock.Add(15 * time.Minute)
	assert.ErrorIs(t, store.View(anon.ID, func(*Session) {}), ErrNotFound)
	assert.NoError(t, store.View(user.ID, func(*Session) {}))
	assert.Equal(t, 1, store.Len())
}

func TestStoreCapsAnonymousSessions(t *testing.T) {
	store := NewStore(time.Hour, nil).LimitAnonymous(0, 2)

	user, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.Update(user.ID, func(s *Session) error { return s.Authenticate("planner") }))

	var ids []string
	for i := 0; i < 4; i++ {
		sess, err := store.Create()
		require.NoError(t, err)
		ids = append(ids, sess.ID)
	}

	assert.Equal(t, 3, store.Len())
	assert.NoError(t, store.View(user.ID, func(*Session) {}))
	assert.ErrorIs(t, store.View(ids[0], func(*Session) {}), ErrNotFound)
	assert.ErrorIs(t, store.View(ids[1], func(*Session) {}), ErrNotFound)
	assert.NoError(t, store.View(ids[2], func(*Session) {}))
	assert.NoError(t, store.View(ids[3], func(*Session) {}))
}

func TestStoreUpdateSerialises(t *testing.T) {
	store := NewStore(time.Hour, nil)
	sess, err := store.Create()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(sess.ID, func(s *Session) error {
				s.spools = append(s.spools, "x")
				return nil
			})
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, store.View(sess.ID, func(s *Session) { _, sp := s.Draft(); n = len(sp) }))
	assert.Equal(t, 50, n)
}

func TestStoreRunStopsWithContext(t *testing.T) {
	store := NewStore(time.Millisecond, nil)
	_, err := store.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestUnknownSession(t *testing.T) {
	store := NewStore(time.Hour, nil)
	assert.ErrorIs(t, store.View("nope", func(*Session) {}), ErrNotFound)
}
