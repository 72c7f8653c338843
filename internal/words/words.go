// internal/words/words.go
package words

import (
	"fmt"
	"math/rand"
)

// pool is the built-in vocabulary the server draws boards from.
var pool = []string{
	"anchor", "apple", "arrow", "bank", "beach", "bell", "bridge", "button",
	"cable", "castle", "cave", "chain", "charge", "circle", "cloud", "comet",
	"compass", "copper", "crane", "crown", "diamond", "dragon", "drill",
	"eagle", "engine", "fall", "feather", "field", "fire", "forest", "fork",
	"ghost", "glass", "glove", "hammer", "harbor", "hawk", "honey", "iron",
	"island", "jet", "key", "knight", "lantern", "laser", "lemon", "light",
	"lion", "lock", "maple", "marble", "mill", "mine", "mirror", "moon",
	"needle", "net", "oak", "ocean", "olive", "orbit", "organ", "palm",
	"paper", "pearl", "piano", "pilot", "pipe", "plate", "pool", "port",
	"queen", "rail", "ring", "river", "robot", "rocket", "root", "rose",
	"salt", "satellite", "scale", "school", "screen", "seal", "shadow",
	"shark", "shell", "ship", "silver", "snow", "spider", "spring", "spy",
	"star", "stone", "storm", "string", "sun", "switch", "table", "tiger",
	"torch", "tower", "train", "trap", "triangle", "wave", "well", "whale",
	"wheel", "wind", "wolf", "yard",
}

// Sample draws n distinct words uniformly from the pool.
func Sample(n int) ([]string, error) {
	if n > len(pool) {
		return nil, fmt.Errorf("cannot sample %d words from a pool of %d", n, len(pool))
	}
	perm := rand.Perm(len(pool))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out, nil
}

// PoolSize reports how many words the built-in pool holds.
func PoolSize() int {
	return len(pool)
}
