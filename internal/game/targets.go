package game

import "math/rand"

// DefaultTargetCount is how many targets PickTargets selects by default.
const DefaultTargetCount = 5

// HomeObjects are everyday household objects a player can plausibly find.
var HomeObjects = []string{
	"person", "chair", "couch", "bed", "dining table", "toilet", "tv",
	"laptop", "mouse", "remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock", "vase",
	"scissors", "teddy bear", "hair drier", "toothbrush", "cup", "fork",
	"knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "bottle",
}

// PickTargets returns up to n random HomeObjects that are present in universe.
// A nil rng uses the global source.
func PickTargets(universe []string, n int, rng *rand.Rand) []string {
	if n <= 0 {
		n = DefaultTargetCount
	}

	known := make(map[string]bool, len(universe))
	for _, l := range universe {
		known[l] = true
	}

	var available []string
	for _, obj := range HomeObjects {
		if known[obj] {
			available = append(available, obj)
		}
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	if len(available) > n {
		available = available[:n]
	}
	return available
}
