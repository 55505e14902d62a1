package usecases

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"health-monitor/db"
	"health-monitor/entities"
	"health-monitor/ml"
	"health-monitor/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRecommender struct{ label string }

func (r fixedRecommender) Recommend(context.Context, ml.Features) string { return r.label }

type recordingNotifier struct {
	mu     sync.Mutex
	events []entities.HealthData
}

func (n *recordingNotifier) ReadingAdded(_ uint, data entities.HealthData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, data)
}

type fixture struct {
	auth     *AuthUseCase
	health   *HealthUseCase
	notifier *recordingNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := db.OpenTestDatabase(t)
	users := repositories.NewUserSQLRepository(database)
	data := repositories.NewHealthDataSQLRepository(database)
	n := &recordingNotifier{}
	return fixture{
		auth:     NewAuthUseCase(users),
		health:   NewHealthUseCase(users, data, fixedRecommender{label: "Maintain current routine"}, n),
		notifier: n,
	}
}

func TestRegister_UniqueUsernames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", u.Password)

	_, err = f.auth.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = f.auth.Register(ctx, "  alice ", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_RequiresCredentials(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), " ", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = f.auth.Register(context.Background(), "bob", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestRegister_RejectsOverlongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "long", strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = f.auth.Register(ctx, "long", strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered, err := f.auth.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	u, err := f.auth.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	_, err = f.auth.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Authenticate(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAddReading_StoresWithRecommendation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	data, err := f.health.AddReading(ctx, u.ID, ReadingInput{Pulse: 72, BloodPressure: "120/80", Weight: 70.5, ActivityLevel: "Moderate"})
	require.NoError(t, err)
	assert.NotZero(t, data.ID)
	assert.Equal(t, u.ID, data.UserID)
	assert.Equal(t, "120/80", data.BloodPressure)
	assert.Equal(t, "Maintain current routine", data.Recommendation)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, data.ID, f.notifier.events[0].ID)
}

func TestAddReading_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	cases := map[string]ReadingInput{
		"zero pulse":      {Pulse: 0, BloodPressure: "120", Weight: 70, ActivityLevel: "Low"},
		"negative weight": {Pulse: 70, BloodPressure: "120", Weight: -1, ActivityLevel: "Low"},
		"bad pressure":    {Pulse: 70, BloodPressure: "high", Weight: 70, ActivityLevel: "Low"},
		"no activity":     {Pulse: 70, BloodPressure: "120", Weight: 70, ActivityLevel: " "},
		"NaN pressure":    {Pulse: 70, BloodPressure: "NaN/80", Weight: 70, ActivityLevel: "Low"},
		"Inf pressure":    {Pulse: 70, BloodPressure: "Inf", Weight: 70, ActivityLevel: "Low"},
		"NaN weight":      {Pulse: 70, BloodPressure: "120", Weight: math.NaN(), ActivityLevel: "Low"},
		"Inf weight":      {Pulse: 70, BloodPressure: "120", Weight: math.Inf(1), ActivityLevel: "Low"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.health.AddReading(ctx, u.ID, in)
			assert.ErrorIs(t, err, ErrInvalidReading)
		})
	}
	assert.Empty(t, f.notifier.events)
}

func TestAddReading_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.health.AddReading(context.Background(), 999, ReadingInput{Pulse: 70, BloodPressure: "120", Weight: 70, ActivityLevel: "Low"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDashboard_LatestRecommendation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	d, err := f.health.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Readings)
	assert.Equal(t, NoRecommendation, d.Recommendation)

	_, err = f.health.AddReading(ctx, u.ID, ReadingInput{Pulse: 70, BloodPressure: "120", Weight: 70, ActivityLevel: "Low"})
	require.NoError(t, err)
	f.health.Recommender = fixedRecommender{label: "Increase activity"}
	_, err = f.health.AddReading(ctx, u.ID, ReadingInput{Pulse: 75, BloodPressure: "125", Weight: 71, ActivityLevel: "Low"})
	require.NoError(t, err)

	d, err = f.health.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, d.Readings, 2)
	assert.Equal(t, 70, d.Readings[0].Pulse)
	assert.Equal(t, "Increase activity", d.Recommendation)
}

func TestActivityDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, err := f.auth.Register(ctx, "alice", "secret")
	require.NoError(t, err)
	bob, err := f.auth.Register(ctx, "bob", "secret")
	require.NoError(t, err)

	for _, level := range []string{"Low", "High", "High", "Extreme"} {
		_, err := f.health.AddReading(ctx, alice.ID, ReadingInput{Pulse: 70, BloodPressure: "120", Weight: 70, ActivityLevel: level})
		require.NoError(t, err)
	}
	_, err = f.health.AddReading(ctx, bob.ID, ReadingInput{Pulse: 70, BloodPressure: "120", Weight: 70, ActivityLevel: "Moderate"})
	require.NoError(t, err)

	d, err := f.health.ActivityDistribution(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []LevelCount{{"Low", 1}, {"Moderate", 0}, {"High", 2}}, d.Levels)
	assert.Equal(t, int64(3), d.Total)

	d, err = f.health.ActivityDistribution(ctx, 12345)
	require.NoError(t, err)
	assert.Zero(t, d.Total)
}
