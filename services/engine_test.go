package services

import (
	"fmt"
	mrand "math/rand"
	"sync"
	"testing"

	"github.com/squarespool/squares-backend/config"
	"github.com/squarespool/squares-backend/game"
	"github.com/squarespool/squares-backend/models"
	"github.com/squarespool/squares-backend/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// -------------------- fakes --------------------

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeBroadcaster) Publish(gameCode string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) named(name string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeVerifier struct {
	sent      []string
	validCode string
}

func (f *fakeVerifier) Send(phone string) error {
	f.sent = append(f.sent, phone)
	return nil
}

func (f *fakeVerifier) Check(phone, code string) error {
	if code != f.validCode {
		return ErrCodeRejected
	}
	return nil
}

type fakeMailer struct {
	to, token, gameCode string
	fail                bool
}

func (f *fakeMailer) Send(to, token, gameCode string) error {
	if f.fail {
		return ErrMailNotConfigured
	}
	f.to, f.token, f.gameCode = to, token, gameCode
	return nil
}

// -------------------- setup --------------------

func newTestEngine(t *testing.T) (*Engine, *fakeBroadcaster, *fakeVerifier, *fakeMailer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	hub := &fakeBroadcaster{}
	verifier := &fakeVerifier{validCode: "123456"}
	mailer := &fakeMailer{}

	e := NewEngine(store.New(db), hub, verifier, mailer)
	e.newRand = func() *mrand.Rand { return mrand.New(mrand.NewSource(1)) }
	return e, hub, verifier, mailer
}

func mustCreate(t *testing.T, e *Engine) (*models.Game, *models.Participant) {
	t.Helper()
	g, admin, err := e.CreateGame(CreateGameSpec{
		Name:           "Big Game Pool",
		PricePerSquare: 5,
		PayoutQ1:       100,
		PayoutQ2:       100,
		PayoutQ3:       100,
		PayoutFinal:    200,
		AdminName:      "Admin",
	})
	require.NoError(t, err)
	return g, admin
}

// -------------------- tests --------------------

func TestCreateGameAllocatesCode(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	g, admin := mustCreate(t, e)

	assert.Len(t, g.Code, game.CodeLength)
	assert.Equal(t, g.Code, game.NormalizeCode(g.Code))
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, 0, admin.Quota)

	// The fixed seed makes the second game's first code collide with the
	// first game's; the engine retries with the next code from the same
	// source and succeeds.
	g2, _, err := e.CreateGame(CreateGameSpec{Name: "Other", AdminName: "Admin"})
	require.NoError(t, err)
	assert.NotEqual(t, g.Code, g2.Code)
}

func TestCreateGameRejectsNegativeAmounts(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	_, _, err := e.CreateGame(CreateGameSpec{
		Name:           "Bad",
		PricePerSquare: -1,
		AdminName:      "Admin",
	})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestJoinGameValidation(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	g, _ := mustCreate(t, e)

	_, err := e.JoinGame(g.Code, "Alice", 0, nil, nil)
	assert.ErrorIs(t, err, store.ErrInvalidQuantity)

	_, err = e.JoinGame(g.Code, "Alice", 101, nil, nil)
	assert.ErrorIs(t, err, store.ErrInvalidQuantity)

	_, err = e.JoinGame("ZZZZ99", "Alice", 1, nil, nil)
	assert.ErrorIs(t, err, store.ErrGameNotFound)

	// The availability pre-check counts claimed cells, not quotas.
	alice, err := e.JoinGame(g.Code, "Alice", 100, nil, nil)
	require.NoError(t, err)
	for col := 0; col < 5; col++ {
		require.NoError(t, e.SelectCell(g.Code, alice.ID, 0, col, actionClaim))
	}
	_, err = e.JoinGame(g.Code, "Bob", 96, nil, nil)
	assert.ErrorIs(t, err, store.ErrInvalidQuantity)
	_, err = e.JoinGame(g.Code, "Bob", 95, nil, nil)
	require.NoError(t, err)
}

func TestSelectCellEmitsEvents(t *testing.T) {
	e, hub, _, _ := newTestEngine(t)
	g, _ := mustCreate(t, e)
	alice, err := e.JoinGame(g.Code, "Alice", 2, nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, e.SelectCell(g.Code, alice.ID, 10, 0, actionClaim), ErrInvalidCell)
	assert.ErrorIs(t, e.SelectCell(g.Code, alice.ID, 0, -1, actionClaim), ErrInvalidCell)
	assert.ErrorIs(t, e.SelectCell(g.Code, alice.ID, 0, 0, "steal"), ErrInvalidAction)
	assert.Empty(t, hub.named("cell-changed"))

	require.NoError(t, e.SelectCell(g.Code, alice.ID, 3, 4, actionClaim))
	events := hub.named("cell-changed")
	require.Len(t, events, 1)
	change := events[0].Data.(CellChanged)
	assert.Equal(t, 3, change.Row)
	assert.Equal(t, 4, change.Col)
	require.NotNil(t, change.OwnerID)
	assert.Equal(t, alice.ID, *change.OwnerID)

	require.NoError(t, e.SelectCell(g.Code, alice.ID, 3, 4, actionRelease))
	events = hub.named("cell-changed")
	require.Len(t, events, 2)
	assert.Nil(t, events[1].Data.(CellChanged).OwnerID)

	// A failed claim emits nothing.
	bob, err := e.JoinGame(g.Code, "Bob", 1, nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.SelectCell(g.Code, alice.ID, 3, 4, actionClaim))
	assert.ErrorIs(t, e.SelectCell(g.Code, bob.ID, 3, 4, actionClaim), store.ErrAlreadyTaken)
	assert.Len(t, hub.named("cell-changed"), 3)
}

func TestSubmitPicksFlow(t *testing.T) {
	e, hub, _, _ := newTestEngine(t)
	g, _ := mustCreate(t, e)
	alice, err := e.JoinGame(g.Code, "Alice", 3, nil, nil)
	require.NoError(t, err)

	for col := 0; col < 3; col++ {
		require.NoError(t, e.SelectCell(g.Code, alice.ID, 5, col, actionClaim))
	}
	require.NoError(t, e.SubmitPicks(g.Code, alice.ID))

	events := hub.named("picks-submitted")
	require.Len(t, events, 1)
	assert.Equal(t, alice.ID, events[0].Data.(PicksSubmitted).ParticipantID)

	// Submission is terminal for the participant while the game stays
	// pending: the second submit and any release are rejected.
	assert.ErrorIs(t, e.SubmitPicks(g.Code, alice.ID), store.ErrAlreadySubmitted)
	assert.ErrorIs(t, e.SelectCell(g.Code, alice.ID, 5, 0, actionRelease), store.ErrAlreadySubmitted)
	assert.Len(t, hub.named("picks-submitted"), 1)
}

func TestStartGame(t *testing.T) {
	e, hub, _, _ := newTestEngine(t)
	g, admin := mustCreate(t, e)
	alice, err := e.JoinGame(g.Code, "Alice", 1, nil, nil)
	require.NoError(t, err)

	// Only the admin may start.
	_, _, err = e.StartGame(g.Code, alice.ID)
	assert.ErrorIs(t, err, store.ErrNotAdmin)
	assert.Empty(t, hub.named("game-started"))

	rows, cols, err := e.StartGame(g.Code, admin.ID)
	require.NoError(t, err)
	assert.True(t, game.IsPermutation(rows))
	assert.True(t, game.IsPermutation(cols))

	events := hub.named("game-started")
	require.Len(t, events, 1)
	started := events[0].Data.(GameStarted)
	assert.Equal(t, rows, started.RowNumbers)
	assert.Equal(t, cols, started.ColNumbers)

	// The transition is irreversible; the board is frozen.
	_, _, err = e.StartGame(g.Code, admin.ID)
	assert.ErrorIs(t, err, store.ErrGameNotPending)
	assert.ErrorIs(t, e.SelectCell(g.Code, alice.ID, 0, 0, actionClaim), store.ErrGameNotPending)
	assert.ErrorIs(t, e.SubmitPicks(g.Code, alice.ID), store.ErrGameNotPending)
}

func TestFullBoardScenario(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	g, admin := mustCreate(t, e)

	late, err := e.JoinGame(g.Code, "Late", 1, nil, nil)
	require.NoError(t, err)

	// Four participants with quota 25 fill the board with disjoint claims.
	var buyers []*models.Participant
	for i := 0; i < 4; i++ {
		p, err := e.JoinGame(g.Code, fmt.Sprintf("Buyer%d", i), 25, nil, nil)
		require.NoError(t, err)
		buyers = append(buyers, p)
	}
	for i := 0; i < 100; i++ {
		p := buyers[i/25]
		require.NoError(t, e.SelectCell(g.Code, p.ID, i/10, i%10, actionClaim))
	}

	// Every cell is gone for the fifth participant.
	assert.ErrorIs(t, e.SelectCell(g.Code, late.ID, 0, 0, actionClaim), store.ErrAlreadyTaken)
	assert.ErrorIs(t, e.SelectCell(g.Code, late.ID, 9, 9, actionClaim), store.ErrAlreadyTaken)

	rows, cols, err := e.StartGame(g.Code, admin.ID)
	require.NoError(t, err)
	assert.True(t, game.IsPermutation(rows))
	assert.True(t, game.IsPermutation(cols))

	assert.ErrorIs(t, e.SelectCell(g.Code, buyers[0].ID, 0, 0, actionRelease), store.ErrGameNotPending)

	info, err := e.Info(g.Code)
	require.NoError(t, err)
	assert.Equal(t, 100, info.TakenSquares)
	assert.Equal(t, 0, info.AvailableSquares)
}

func TestSnapshot(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	g, admin := mustCreate(t, e)
	alice, err := e.JoinGame(g.Code, "Alice", 1, nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.SelectCell(g.Code, alice.ID, 2, 7, actionClaim))

	grid, err := e.Snapshot(g.Code)
	require.NoError(t, err)
	assert.Len(t, grid.Cells, 100)
	assert.False(t, grid.NumbersAssigned)

	cell := grid.Cells["2-7"]
	require.NotNil(t, cell.OwnerID)
	assert.Equal(t, alice.ID, *cell.OwnerID)
	assert.Equal(t, "Alice", cell.OwnerName)
	assert.Nil(t, grid.Cells["0-0"].OwnerID)

	rows, cols, err := e.StartGame(g.Code, admin.ID)
	require.NoError(t, err)

	grid, err = e.Snapshot(g.Code)
	require.NoError(t, err)
	assert.True(t, grid.NumbersAssigned)
	assert.Equal(t, rows, grid.RowNumbers)
	assert.Equal(t, cols, grid.ColNumbers)
}

func TestOTPLogin(t *testing.T) {
	e, _, verifier, _ := newTestEngine(t)
	g, _ := mustCreate(t, e)

	phone := "5551234567"
	p, err := e.JoinGame(g.Code, "Alice", 2, &phone, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "+15551234567", *p.Phone)

	require.NoError(t, e.SendOTP(phone))
	assert.Equal(t, []string{"+15551234567"}, verifier.sent)

	got, err := e.LoginWithOTP(g.Code, "(555) 123-4567", "123456")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = e.LoginWithOTP(g.Code, phone, "999999")
	assert.ErrorIs(t, err, ErrCodeRejected)

	_, err = e.LoginWithOTP(g.Code, "5550000000", "123456")
	assert.ErrorIs(t, err, store.ErrParticipantNotFound)
}

func TestMagicLinkFlow(t *testing.T) {
	e, _, _, mailer := newTestEngine(t)
	g, _ := mustCreate(t, e)

	email := "Alice@Example.com"
	p, err := e.JoinGame(g.Code, "Alice", 2, nil, &email)
	require.NoError(t, err)

	require.NoError(t, e.SendMagicLink(g.Code, "alice@example.com"))
	assert.Equal(t, "alice@example.com", mailer.to)
	assert.Equal(t, g.Code, mailer.gameCode)
	assert.Len(t, mailer.token, 64) // 32 random bytes, hex encoded

	got, gotGame, err := e.VerifyMagicLink(mailer.token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, g.Code, gotGame.Code)

	// Single use.
	_, _, err = e.VerifyMagicLink(mailer.token)
	assert.ErrorIs(t, err, store.ErrTokenInvalid)

	// Unknown email.
	err = e.SendMagicLink(g.Code, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrParticipantNotFound)
}

func TestMagicLinkRollsBackOnFailedSend(t *testing.T) {
	e, _, _, mailer := newTestEngine(t)
	g, _ := mustCreate(t, e)

	email := "alice@example.com"
	_, err := e.JoinGame(g.Code, "Alice", 2, nil, &email)
	require.NoError(t, err)

	mailer.fail = true
	assert.Error(t, e.SendMagicLink(g.Code, email))

	// No orphaned token survives a failed send.
	var n int64
	require.NoError(t, e.store.DB().Model(&models.MagicToken{}).Count(&n).Error)
	assert.Zero(t, n)
}
