package stats

import (
	"math"
	"strconv"
	"time"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

const (
	lcgMultiplier = 16807
	lcgModulus    = 2147483647

	statMean   = 78
	statSpread = 8
	statMin    = 60
	statMax    = 98
)

// Generator is a deterministic pseudo-random stream keyed by a string seed.
// Two generators built from the same seed yield identical sequences, which
// keeps generated skill sets reproducible.
type Generator struct {
	state int64
}

// New derives a generator from seed using a 31-polynomial hash over the
// seed's bytes (32-bit wraparound) feeding a Lehmer LCG.
func New(seed string) *Generator {
	var hash int32
	for _, r := range seed {
		hash = hash*31 + int32(r)
	}
	state := int64(hash) % lcgModulus
	if state < 0 {
		state += lcgModulus
	}
	if state == 0 {
		state = 1
	}
	return &Generator{state: state}
}

// NewRandom returns a generator keyed by the current time, for callers that
// do not need reproducibility.
func NewRandom() *Generator {
	return New(strconv.FormatInt(time.Now().UnixNano(), 10))
}

// Float64 advances the stream and returns a uniform value in [0,1).
func (g *Generator) Float64() float64 {
	g.state = g.state * lcgMultiplier % lcgModulus
	return float64(g.state-1) / float64(lcgModulus-1)
}

// Stat draws one skill value: a Box-Muller normal sample centered at 78 with
// spread 8, clamped to [60,98].
func (g *Generator) Stat() int {
	u1 := g.Float64()
	u2 := g.Float64()
	if u1 <= 0 {
		u1 = math.SmallestNonzeroFloat64
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	stat := int(math.Round(z*statSpread + statMean))
	if stat < statMin {
		return statMin
	}
	if stat > statMax {
		return statMax
	}
	return stat
}

// Skills draws a full skill set, six independent stats in canonical order.
func (g *Generator) Skills() domain.SkillSet {
	return domain.SkillSet{
		Technical:     g.Stat(),
		Leadership:    g.Stat(),
		Creativity:    g.Stat(),
		Reliability:   g.Stat(),
		Collaboration: g.Stat(),
		Adaptability:  g.Stat(),
	}
}
