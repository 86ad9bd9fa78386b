package game

import (
	"sort"
	"time"
)

// Join appends a player to the room. It must run inside an atomic store
// update so two simultaneous joiners cannot both take the last slot.
func Join(r *Room, name string) error {
	if r.GameStarted || r.Phase != PhaseWaitingRoom {
		return ErrGameStarted
	}
	if len(r.Players) >= r.MaxPlayers {
		return ErrRoomFull
	}
	if _, ok := r.Player(name); ok {
		return ErrNameTaken
	}
	r.Players = append(r.Players, Player{Name: name})
	if r.Scores == nil {
		r.Scores = map[string]int{}
	}
	r.Scores[name] = 0
	return nil
}

// Start moves the room from the waiting room into the answering phase.
// Host only, and at least MinPlayers must have joined.
func Start(r *Room, by string) error {
	if !r.isHost(by) {
		return ErrNotHost
	}
	if r.Phase != PhaseWaitingRoom {
		return ErrWrongPhase
	}
	if len(r.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	r.GameStarted = true
	r.Phase = PhaseAnswering
	return nil
}

// SubmitAnswers records one player's answers. An entry, once written, is
// immutable. The moment every player has answered, the room moves to the
// guessing phase with the first player as target and a fresh guess map.
func SubmitAnswers(r *Room, player string, answers Answers, qs []Question) error {
	if r.Phase != PhaseAnswering {
		return ErrWrongPhase
	}
	if _, ok := r.Player(player); !ok {
		return ErrNotInRoom
	}
	if err := ValidateAnswers(qs, answers); err != nil {
		return err
	}
	if r.PlayerAnswers == nil {
		r.PlayerAnswers = map[string]Answers{}
	}
	if _, ok := r.PlayerAnswers[player]; ok {
		return ErrAlreadyAnswered
	}
	r.PlayerAnswers[player] = answers

	if len(r.PlayerAnswers) == len(r.Players) {
		r.Phase = PhaseGuessing
		r.CurrentTarget = 0
		r.Guesses = map[string]map[string]Answers{}
		r.Reveal = nil
	}
	return nil
}

// SubmitGuesses records one guesser's guesses against the current target.
// When the last non-target player submits, the same update computes the round
// scores and publishes the reveal, so the "has everyone guessed" check always
// runs against the store's current value rather than a stale client snapshot.
func SubmitGuesses(r *Room, guesser string, guesses Answers, qs []Question, now time.Time) error {
	if r.Phase != PhaseGuessing {
		return ErrWrongPhase
	}
	if _, ok := r.Player(guesser); !ok {
		return ErrNotInRoom
	}
	target := r.TargetName()
	if guesser == target {
		return ErrTargetCannotGuess
	}
	if err := ValidateAnswers(qs, guesses); err != nil {
		return err
	}
	if r.Guesses == nil {
		r.Guesses = map[string]map[string]Answers{}
	}
	if r.Guesses[target] == nil {
		r.Guesses[target] = map[string]Answers{}
	}
	if _, ok := r.Guesses[target][guesser]; ok {
		return ErrAlreadyGuessed
	}
	r.Guesses[target][guesser] = guesses

	if len(r.Guesses[target]) >= len(r.Players)-1 {
		publishReveal(r, target, qs, now)
	}
	return nil
}

// publishReveal scores the finished round and attaches the timed reveal.
func publishReveal(r *Room, target string, qs []Question, now time.Time) {
	targetAnswers := r.PlayerAnswers[target]
	roundScores := map[string]int{}
	for guesser, guesses := range r.Guesses[target] {
		if guesser == target {
			continue
		}
		correct := 0
		for _, q := range qs {
			if guesses[q.ID] == targetAnswers[q.ID] {
				correct++
			}
		}
		delta := correct - (len(qs) - correct)
		roundScores[guesser] = delta
		if r.Scores == nil {
			r.Scores = map[string]int{}
		}
		r.Scores[guesser] += delta
	}
	r.Reveal = &Reveal{
		Target:  target,
		Answers: targetAnswers,
		Scores:  roundScores,
		Until:   now.Add(RevealDuration).UnixMilli(),
	}
}

// Advance ends the current round: it clears the reveal and moves to the next
// target, or to results after the last one. target is the round the caller
// observed; if the room has already advanced past it (a timer and a click can
// both fire for the same round) the call is a no-op.
func Advance(r *Room, by string, target int) error {
	if !r.isHost(by) {
		return ErrNotHost
	}
	if r.Phase != PhaseGuessing {
		return nil
	}
	if r.CurrentTarget != target || r.Reveal == nil {
		return nil
	}
	r.Reveal = nil
	if r.CurrentTarget+1 >= len(r.Players) {
		r.Phase = PhaseResults
		return nil
	}
	r.CurrentTarget++
	return nil
}

// Finish moves the room from results to the terminal game-over state.
func Finish(r *Room, by string) error {
	if !r.isHost(by) {
		return ErrNotHost
	}
	if r.Phase != PhaseResults {
		return ErrWrongPhase
	}
	r.Phase = PhaseGameOver
	return nil
}

// Reset starts a fresh game with the same roster ("play again"). This is the
// only sanctioned backward phase transition.
func Reset(r *Room, by string) error {
	if !r.isHost(by) {
		return ErrNotHost
	}
	if r.Phase != PhaseResults && r.Phase != PhaseGameOver {
		return ErrWrongPhase
	}
	r.Phase = PhaseAnswering
	r.PlayerAnswers = map[string]Answers{}
	r.Guesses = map[string]map[string]Answers{}
	r.CurrentTarget = 0
	r.Reveal = nil
	r.Scores = map[string]int{}
	for _, p := range r.Players {
		r.Scores[p.Name] = 0
	}
	return nil
}

// Winners returns every player tied at the maximum score, in player order.
func Winners(r *Room) []string {
	if len(r.Players) == 0 {
		return nil
	}
	max := 0
	first := true
	for _, p := range r.Players {
		s := r.Scores[p.Name]
		if first || s > max {
			max, first = s, false
		}
	}
	var winners []string
	for _, p := range r.Players {
		if r.Scores[p.Name] == max {
			winners = append(winners, p.Name)
		}
	}
	return winners
}

// Standings returns player names sorted by score, descending, ties broken by
// join order.
func Standings(r *Room) []string {
	names := make([]string, len(r.Players))
	order := make(map[string]int, len(r.Players))
	for i, p := range r.Players {
		names[i] = p.Name
		order[p.Name] = i
	}
	sort.SliceStable(names, func(i, j int) bool {
		si, sj := r.Scores[names[i]], r.Scores[names[j]]
		if si != sj {
			return si > sj
		}
		return order[names[i]] < order[names[j]]
	})
	return names
}
