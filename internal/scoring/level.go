package scoring

var (
	levelThresholds = []int{0, 100, 250, 450, 700, 1000, 1400, 1900, 2500, 3200, 4000}
	levelTitles     = []string{
		"Beginner",
		"Basic Understanding",
		"Diligent Learner",
		"Sharp Thinker",
		"Math Expert",
		"Math Master",
		"Math Genius",
		"True Genius",
		"Math Legend",
		"Math Deity",
		"Grandmaster",
	}
)

// Level describes where a cumulative score sits on the progression ladder.
type Level struct {
	Number    int    `json:"level"`
	Title     string `json:"title"`
	CurrentXP int    `json:"currentXp"`
	// ToNext is zero at the top level.
	ToNext int `json:"toNext"`
}

// LevelFor maps a cumulative score to a level.
func LevelFor(score int) Level {
	for i := len(levelThresholds) - 1; i >= 0; i-- {
		if score < levelThresholds[i] {
			continue
		}
		if i == len(levelThresholds)-1 {
			return Level{Number: i, Title: levelTitles[i]}
		}
		return Level{
			Number:    i,
			Title:     levelTitles[i],
			CurrentXP: score - levelThresholds[i],
			ToNext:    levelThresholds[i+1] - levelThresholds[i],
		}
	}
	return Level{Title: levelTitles[0], ToNext: levelThresholds[1]}
}
