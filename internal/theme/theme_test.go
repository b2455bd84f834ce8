package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAlignsColumns(t *testing.T) {
	out := Table(
		[]string{"VENDOR", "VERSION"},
		[][]string{
			{"zulu", "17.0.2"},
			{"oracle_open_jdk", "21"},
			{"short"},
		},
	)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)

	// The second column starts at the same visual offset on every line.
	col := strings.Index(lines[1], "17.0.2")
	assert.Equal(t, col, strings.Index(lines[2], "21"))
	assert.Equal(t, col, lipgloss.Width("oracle_open_jdk")+3)
	assert.Contains(t, lines[3], "short")
}

func TestMessages(t *testing.T) {
	assert.Contains(t, SuccessMessage("done"), "done")
	assert.Contains(t, ErrorMessage("failed"), "failed")
	assert.Contains(t, WarningMessage("careful"), "careful")
}
