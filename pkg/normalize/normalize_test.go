package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases and trims", "  Jane Smith  ", "jane smith"},
		{"strips credential after punctuation removal", "Jane Smith, M.D.", "jane smith"},
		{"strips hyphenated credential", "John Adams PA-C", "john adams"},
		{"strips generic practice words", "Smith Family Medicine Clinic", "smith"},
		{"strips multi word generic phrase", "Lakeside Direct Primary Care", "lakeside"},
		{"strips dr prefix", "Dr. Jane Smith", "jane smith"},
		{"keeps generic substrings inside words", "Drummond Health Partners", "drummond partners"},
		{"collapses interior whitespace", "Jane\t\tSmith", "jane smith"},
		{"empty input", "", ""},
		{"all generic input collapses to empty", "Primary Care Clinic", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.input))
		})
	}
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{
		"Dr. Jane Smith, MD",
		"Lakeside Direct Primary Care",
		"O'Brien Family Medicine",
		"",
	}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "input %q", in)
	}
}

func TestWebsite(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips scheme and www", "https://www.example.com", "example.com"},
		{"strips http scheme", "http://example.com", "example.com"},
		{"strips single trailing slash", "https://example.com/", "example.com"},
		{"preserves path", "https://example.com/about", "example.com/about"},
		{"lowercases", "HTTPS://Example.COM", "example.com"},
		{"bare domain passes through", "example.com", "example.com"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Website(tt.input))
		})
	}
}

func TestAddress(t *testing.T) {
	t.Run("strips street suffix and punctuation", func(t *testing.T) {
		a := Address("123 Main Street", "Austin", "TX", "78701")
		b := Address("123 Main St.", "Austin", "TX", "78701")
		assert.Equal(t, a, b)
		assert.Equal(t, "123 main austin tx 78701", a)
	})

	t.Run("strips unit markers", func(t *testing.T) {
		assert.Equal(t, "450 oak suite 2 dallas tx", Address("450 Oak Ave, Suite #2", "Dallas", "TX", ""))
	})

	t.Run("skips blank components", func(t *testing.T) {
		assert.Equal(t, "austin tx", Address("", "Austin", "TX", ""))
	})

	t.Run("all blank yields empty", func(t *testing.T) {
		assert.Equal(t, "", Address("", "", "", ""))
	})
}

func TestZipCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain five digits", "78701", "78701"},
		{"zip plus four", "78701-1234", "78701"},
		{"digits with noise", " 78701 ", "78701"},
		{"too few digits", "787", ""},
		{"no digits", "ABCDE", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ZipCode(tt.input))
		})
	}
}

func TestCityAndState(t *testing.T) {
	assert.Equal(t, "san antonio", City("  San   Antonio "))
	assert.Equal(t, "tx", State(" TX "))
}

func TestRegistry(t *testing.T) {
	t.Run("built in normalizers are registered", func(t *testing.T) {
		for _, name := range []string{"name", "website", "address", "city", "state", "zip", "lowercase", "trim"} {
			_, ok := Get(name)
			assert.True(t, ok, "normalizer %q", name)
		}
	})

	t.Run("apply uses registered normalizer", func(t *testing.T) {
		assert.Equal(t, "jane smith", Apply("Dr. Jane Smith, MD", "name"))
	})

	t.Run("apply passes through unknown names", func(t *testing.T) {
		assert.Equal(t, "RAW Value", Apply("RAW Value", "does-not-exist"))
	})

	t.Run("register overrides", func(t *testing.T) {
		Register("shout", func(s string) string { return s + "!" })
		assert.Equal(t, "hi!", Apply("hi", "shout"))
	})
}
