package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	mrand "math/rand"
	"strings"
	"time"

	"github.com/squarespool/squares-backend/game"
	"github.com/squarespool/squares-backend/models"
	"github.com/squarespool/squares-backend/store"
	"github.com/squarespool/squares-backend/utils/logger"
)

const (
	maxCodeAttempts = 10
	tokenExpiry     = time.Hour
	totalCells      = game.GridSize * game.GridSize
	actionClaim     = "select"
	actionRelease   = "deselect"
)

// Validation errors raised before any store access.
var (
	ErrInvalidCell    = errors.New("invalid row or column")
	ErrInvalidAction  = errors.New("invalid action")
	ErrNegativeAmount = errors.New("values must be non-negative")
	ErrCodeExhausted  = errors.New("could not allocate a unique game code")
)

// OTPVerifier is the phone verification provider (opaque pass/fail gate).
type OTPVerifier interface {
	Send(phone string) error
	Check(phone, code string) error
}

// LinkMailer delivers magic-link login emails.
type LinkMailer interface {
	Send(to, token, gameCode string) error
}

// Engine orchestrates every game command: validate, apply one atomic
// store mutation, then emit an event. A command's result never depends on
// broadcast success.
type Engine struct {
	store    *store.Store
	hub      Broadcaster
	verifier OTPVerifier
	mailer   LinkMailer

	// newRand is swapped for a seeded source in tests.
	newRand func() *mrand.Rand
}

func NewEngine(s *store.Store, hub Broadcaster, verifier OTPVerifier, mailer LinkMailer) *Engine {
	return &Engine{
		store:    s,
		hub:      hub,
		verifier: verifier,
		mailer:   mailer,
		newRand: func() *mrand.Rand {
			return mrand.New(mrand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (e *Engine) publish(code string, ev Event) {
	if e.hub == nil {
		return
	}
	e.hub.Publish(game.NormalizeCode(code), ev)
}

// -------------------- Game lifecycle --------------------

type CreateGameSpec struct {
	Name           string
	PricePerSquare float64
	PayoutQ1       float64
	PayoutQ2       float64
	PayoutQ3       float64
	PayoutFinal    float64
	AdminName      string
}

// CreateGame allocates a collision-free code and creates the game with
// its admin and 100 empty cells. Only ErrDuplicateCode is retried, with a
// fresh code each attempt.
func (e *Engine) CreateGame(spec CreateGameSpec) (*models.Game, *models.Participant, error) {
	if spec.PricePerSquare < 0 || spec.PayoutQ1 < 0 || spec.PayoutQ2 < 0 ||
		spec.PayoutQ3 < 0 || spec.PayoutFinal < 0 {
		return nil, nil, ErrNegativeAmount
	}

	r := e.newRand()
	for i := 0; i < maxCodeAttempts; i++ {
		g, admin, err := e.store.CreateGame(store.GameSpec{
			Code:           game.NewCode(r),
			Name:           spec.Name,
			PricePerSquare: spec.PricePerSquare,
			PayoutQ1:       spec.PayoutQ1,
			PayoutQ2:       spec.PayoutQ2,
			PayoutQ3:       spec.PayoutQ3,
			PayoutFinal:    spec.PayoutFinal,
			AdminName:      spec.AdminName,
		})
		if errors.Is(err, store.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("game %s created (id=%d admin=%d)", g.Code, g.ID, admin.ID)
		return g, admin, nil
	}
	return nil, nil, ErrCodeExhausted
}

// JoinGame adds a participant to a pending game. The availability check
// against the taken count is advisory; the per-cell claim path is the
// authoritative quota guard.
func (e *Engine) JoinGame(code, name string, quota int, phone, email *string) (*models.Participant, error) {
	if quota < 1 || quota > totalCells {
		return nil, store.ErrInvalidQuantity
	}

	g, err := e.store.GameByCode(code)
	if err != nil {
		return nil, err
	}
	if g.Status != models.StatusPending {
		return nil, store.ErrGameNotPending
	}

	taken, err := e.store.TakenCount(g.ID)
	if err != nil {
		return nil, err
	}
	if quota > totalCells-taken {
		return nil, store.ErrInvalidQuantity
	}

	if phone != nil {
		n := NormalizePhone(*phone)
		phone = &n
	}
	if email != nil {
		n := strings.ToLower(strings.TrimSpace(*email))
		email = &n
	}

	return e.store.AddParticipant(g.ID, store.ParticipantSpec{
		Name:  name,
		Quota: quota,
		Phone: phone,
		Email: email,
	})
}

// SelectCell routes a claim or release. On success it emits cell-changed
// to the game's subscribers.
func (e *Engine) SelectCell(code string, participantID uint, row, col int, action string) error {
	if row < 0 || row >= game.GridSize || col < 0 || col >= game.GridSize {
		return ErrInvalidCell
	}

	g, err := e.store.GameByCode(code)
	if err != nil {
		return err
	}

	var owner *uint
	switch action {
	case actionClaim:
		if err := e.store.ClaimCell(g.ID, row, col, participantID); err != nil {
			return err
		}
		owner = &participantID
	case actionRelease:
		if err := e.store.ReleaseCell(g.ID, row, col, participantID); err != nil {
			return err
		}
	default:
		return ErrInvalidAction
	}

	e.publish(g.Code, Event{Name: "cell-changed", Data: CellChanged{Row: row, Col: col, OwnerID: owner}})
	return nil
}

// SubmitPicks locks a participant's selection and announces it.
func (e *Engine) SubmitPicks(code string, participantID uint) error {
	g, err := e.store.GameByCode(code)
	if err != nil {
		return err
	}
	if err := e.store.SubmitPicks(g.ID, participantID); err != nil {
		return err
	}
	e.publish(g.Code, Event{Name: "picks-submitted", Data: PicksSubmitted{ParticipantID: participantID}})
	return nil
}

// StartGame assigns the row/column numbers and freezes the board.
// Eligibility is pre-checked so permutations are only generated for a
// caller that looks allowed; the store's conditional update remains the
// authoritative gate if the pre-check races.
func (e *Engine) StartGame(code string, adminID uint) ([]int, []int, error) {
	g, err := e.store.GameByCode(code)
	if err != nil {
		return nil, nil, err
	}
	if g.AdminID == nil || *g.AdminID != adminID {
		return nil, nil, store.ErrNotAdmin
	}
	if g.Status != models.StatusPending {
		return nil, nil, store.ErrGameNotPending
	}

	rows, cols := game.AssignNumbers(e.newRand())
	if err := e.store.StartGame(g.ID, adminID, rows, cols); err != nil {
		return nil, nil, err
	}

	logger.Infof("game %s started", g.Code)
	e.publish(g.Code, Event{Name: "game-started", Data: GameStarted{RowNumbers: rows, ColNumbers: cols}})
	return rows, cols, nil
}

// -------------------- Read models --------------------

type ParticipantInfo struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	IsAdmin        bool   `json:"isAdmin"`
	Quota          int    `json:"quota"`
	PicksSubmitted bool   `json:"picksSubmitted"`
	SelectedCount  int    `json:"selectedCount"`
}

type GameInfo struct {
	*models.Game
	TakenSquares     int               `json:"takenSquares"`
	AvailableSquares int               `json:"availableSquares"`
	Participants     []ParticipantInfo `json:"participants"`
}

// Info returns the full game summary used by the lobby view.
func (e *Engine) Info(code string) (*GameInfo, error) {
	g, err := e.store.GameByCode(code)
	if err != nil {
		return nil, err
	}

	taken, err := e.store.TakenCount(g.ID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ParticipantsByGame(g.ID)
	if err != nil {
		return nil, err
	}
	counts, err := e.store.SelectionCounts(g.ID)
	if err != nil {
		return nil, err
	}

	info := &GameInfo{
		Game:             g,
		TakenSquares:     taken,
		AvailableSquares: totalCells - taken,
		Participants:     make([]ParticipantInfo, 0, len(participants)),
	}
	for _, p := range participants {
		info.Participants = append(info.Participants, ParticipantInfo{
			ID:             p.ID,
			Name:           p.Name,
			IsAdmin:        p.IsAdmin,
			Quota:          p.Quota,
			PicksSubmitted: p.PicksSubmitted,
			SelectedCount:  counts[p.ID],
		})
	}
	return info, nil
}

type GridCell struct {
	OwnerID   *uint  `json:"ownerId"`
	OwnerName string `json:"ownerName,omitempty"`
}

type Grid struct {
	Cells           map[string]GridCell `json:"cells"`
	RowNumbers      []int               `json:"rowNumbers,omitempty"`
	ColNumbers      []int               `json:"colNumbers,omitempty"`
	NumbersAssigned bool                `json:"numbersAssigned"`
}

// Snapshot returns the authoritative board state. Clients poll or
// re-fetch it after any missed or conflicting event; it is always safe
// and idempotent.
func (e *Engine) Snapshot(code string) (*Grid, error) {
	g, err := e.store.GameByCode(code)
	if err != nil {
		return nil, err
	}
	cells, err := e.store.CellsByGame(g.ID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ParticipantsByGame(g.ID)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}

	grid := &Grid{Cells: make(map[string]GridCell, len(cells))}
	for _, c := range cells {
		gc := GridCell{OwnerID: c.ParticipantID}
		if c.ParticipantID != nil {
			gc.OwnerName = names[*c.ParticipantID]
		}
		grid.Cells[cellKey(c.Row, c.Col)] = gc
	}

	if len(g.RowNumbers) > 0 && len(g.ColNumbers) > 0 {
		grid.NumbersAssigned = true
		grid.RowNumbers = decodeNumbers(g.RowNumbers)
		grid.ColNumbers = decodeNumbers(g.ColNumbers)
	}
	return grid, nil
}

// -------------------- Login recovery --------------------

// SendOTP asks the verification provider to text a code.
func (e *Engine) SendOTP(phone string) error {
	return e.verifier.Send(NormalizePhone(phone))
}

// LoginWithOTP checks the code with the provider, then resolves the
// participant by phone within the game.
func (e *Engine) LoginWithOTP(code, phone, otp string) (*models.Participant, error) {
	normalized := NormalizePhone(phone)
	if err := e.verifier.Check(normalized, otp); err != nil {
		return nil, err
	}
	g, err := e.store.GameByCode(code)
	if err != nil {
		return nil, err
	}
	return e.store.ParticipantByPhone(g.ID, normalized)
}

// SendMagicLink generates a 256-bit single-use token, stores it with a
// one hour expiry and mails it. A failed send rolls the token back.
func (e *Engine) SendMagicLink(code, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return store.ErrParticipantNotFound
	}

	g, err := e.store.GameByCode(code)
	if err != nil {
		return err
	}
	if _, err := e.store.ParticipantByEmail(g.ID, email); err != nil {
		return err
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	if err := e.store.CreateMagicToken(token, email, g.ID, time.Now().Add(tokenExpiry)); err != nil {
		return err
	}

	if err := e.mailer.Send(email, token, g.Code); err != nil {
		if delErr := e.store.DeleteMagicToken(token); delErr != nil {
			logger.Errorf("failed to roll back magic token: %v", delErr)
		}
		return err
	}
	return nil
}

// VerifyMagicLink consumes a token and resolves the participant. The
// token is gone afterwards whether or not the lookup succeeds.
func (e *Engine) VerifyMagicLink(token string) (*models.Participant, *models.Game, error) {
	mt, err := e.store.ConsumeMagicToken(token)
	if err != nil {
		return nil, nil, err
	}

	g, err := e.store.GameByID(mt.GameID)
	if err != nil {
		return nil, nil, err
	}
	p, err := e.store.ParticipantByEmail(mt.GameID, mt.Email)
	if err != nil {
		return nil, nil, err
	}
	return p, g, nil
}

// -------------------- Helpers --------------------

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func cellKey(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

func decodeNumbers(raw []byte) []int {
	var nums []int
	if err := json.Unmarshal(raw, &nums); err != nil {
		logger.Errorf("malformed number assignment: %v", err)
		return nil
	}
	return nums
}
