package game

// Question is a static catalog entry. The catalog is compiled in, immutable,
// and shared by all rooms; it is not part of the Room document.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Questions returns the full catalog in play order.
func Questions() []Question {
	return questions
}

var questions = []Question{
	{ID: "q1", Text: "If I were a sound effect, I'd be:", Options: []string{
		"Ka-ching!",
		"Dramatic gasp",
		"Boing!",
		"Evil laugh",
	}},
	{ID: "q2", Text: "If I were a weather forecast, I'd be:", Options: []string{
		"100% chill",
		"Partly dramatic with a chance of chaos!",
		"Heatwave vibes",
		"Sudden tornado of opinions",
	}},
	{ID: "q3", Text: "If I were a breakfast cereal, I'd be:", Options: []string{
		"Jungle Oats",
		"WeetBix",
		"Rice Krispies",
		"MorVite",
		"That weird healthy one no-one eats",
	}},
	{ID: "q4", Text: "If I were a bedtime excuse, I'd be...", Options: []string{
		"I need water",
		"There's a spider in my room",
		"I can't sleep without \"Pillow\"",
		"There see shadows outside my window",
		"Just one more episode",
	}},
	{ID: "q5", Text: "If I were a villain in a movie, I'd be...", Options: []string{
		"Scarlet Overkill",
		"Grinch",
		"Thanos",
		"A mosquito in your room at night",
		"Darth Vader",
	}},
	{ID: "q6", Text: "If I were a kitchen appliance, I'd be...", Options: []string{
		"A blender on high speed with no lid",
		"A toaster that only pops when no one's looking",
		"Microwave that screams when it's done",
		"A fridge that judges your snack choices",
	}},
	{ID: "q7", Text: "If I were a dance move, I'd be...", Options: []string{
		"The awkward shuffle at weddings",
		"Kwasakwasa, Ba-baah!",
		"The \"I thought no one was watching\" move",
		"The knee-pop followed by a regretful sit-down",
	}},
	{ID: "q8", Text: "If I were a text message, I'd be...", Options: []string{
		"A typo-ridden voice-to-text disaster",
		"A three-hour late \"LOL\"",
		"A group chat gif spammer",
		"A mysterious \"K.\" with no context",
	}},
	{ID: "q9", Text: "If I were a warning label, I'd be...", Options: []string{
		"Caution: May spontaneously break into song",
		"Contents may cause uncontrollable giggles",
		"Qaphela: Gevaar/Ingozi",
		"Warning: Will talk your ear off about random facts",
		"May contain traces of impulsive decisions",
	}},
	{ID: "q10", Text: "If I were a type of chair, I'd be...", Options: []string{
		"A Phala Phala sofa",
		"A creaky antique that screams when you sit",
		"One of those folding chairs that attack your fingers",
		"A throne made of regrets and snack crumbs",
	}},
}

// ValidateAnswers checks that every catalog question has exactly one answer
// and that no unknown question IDs sneak in.
func ValidateAnswers(qs []Question, answers Answers) error {
	if len(answers) != len(qs) {
		return ErrIncompleteAnswers
	}
	for _, q := range qs {
		if _, ok := answers[q.ID]; !ok {
			return ErrIncompleteAnswers
		}
	}
	return nil
}
