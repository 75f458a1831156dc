package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_ExactMatch(t *testing.T) {
	scorer := NewScorer()

	t.Run("case insensitive by default", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.ExactMatch("Jane Smith", "jane smith", false))
	})

	t.Run("case sensitive respects case", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.ExactMatch("Jane Smith", "jane smith", true))
		assert.Equal(t, 1.0, scorer.ExactMatch("jane smith", "jane smith", true))
	})

	t.Run("different strings", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.ExactMatch("jane", "john", false))
	})
}

func TestScorer_Jaro(t *testing.T) {
	scorer := NewScorer()

	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Jaro("martha", "martha"))
	})

	t.Run("empty string scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Jaro("", "martha"))
		assert.Equal(t, 0.0, scorer.Jaro("martha", ""))
	})

	t.Run("no common characters score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Jaro("abc", "xyz"))
	})

	t.Run("known reference values", func(t *testing.T) {
		assert.InDelta(t, 0.9444, scorer.Jaro("martha", "marhta"), 0.0001)
		assert.InDelta(t, 0.7667, scorer.Jaro("dixon", "dicksonx"), 0.0001)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"martha", "marhta"},
			{"dixon", "dicksonx"},
			{"jane smith", "jane smyth"},
		}
		for _, p := range pairs {
			assert.Equal(t, scorer.Jaro(p[0], p[1]), scorer.Jaro(p[1], p[0]))
		}
	})
}

func TestScorer_JaroWinkler(t *testing.T) {
	scorer := NewScorer()

	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.JaroWinkler("jane smith", "jane smith"))
	})

	t.Run("prefix boost lifts the jaro score", func(t *testing.T) {
		jaro := scorer.Jaro("martha", "marhta")
		jw := scorer.JaroWinkler("martha", "marhta")
		assert.Greater(t, jw, jaro)
		assert.InDelta(t, 0.9611, jw, 0.0001)
	})

	t.Run("prefix boost caps at four characters", func(t *testing.T) {
		// Shares a 6-char prefix; the boost must only count 4.
		jaro := scorer.Jaro("abcdefgh", "abcdefxy")
		expected := jaro + 4*0.1*(1.0-jaro)
		assert.InDelta(t, expected, scorer.JaroWinkler("abcdefgh", "abcdefxy"), 0.0000001)
	})

	t.Run("no shared prefix equals plain jaro", func(t *testing.T) {
		assert.Equal(t, scorer.Jaro("xavier", "savier"), scorer.JaroWinkler("xavier", "savier"))
	})

	t.Run("score bounded between 0 and 1", func(t *testing.T) {
		pairs := [][2]string{
			{"jane smith", "smith family"},
			{"a", "b"},
			{"lakeside", "lakeshore"},
		}
		for _, p := range pairs {
			score := scorer.JaroWinkler(p[0], p[1])
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	})
}
