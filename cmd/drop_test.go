package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		stdin     string
		contains  []string
		remaining string
	}{
		{
			name:      "force",
			args:      []string{"drop", "--force"},
			contains:  []string{"This will delete:", "• 2 rows from products", "Dropped 3 tables (3 rows)."},
			remaining: "No products stored.",
		},
		{
			name:      "confirmed",
			args:      []string{"drop"},
			stdin:     "yes\n",
			contains:  []string{"Type 'yes' to confirm:", "Dropped 3 tables"},
			remaining: "No products stored.",
		},
		{
			name:      "cancelled",
			args:      []string{"drop"},
			stdin:     "no\n",
			contains:  []string{"Operation cancelled."},
			remaining: "Widget",
		},
		{
			name:      "no input",
			args:      []string{"drop"},
			contains:  []string{"Operation cancelled."},
			remaining: "Widget",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := isolate(t)

			mustRun(t, dbPath, "products", "add", "10", "Widget")
			mustRun(t, dbPath, "products", "add", "20", "Gadget")
			mustRun(t, dbPath, "kv", "set", "theme", "dark")

			out, err := runApp(t, dbPath, tt.stdin, tt.args...)
			require.NoError(t, err)

			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}

			assert.Contains(t, mustRun(t, dbPath, "products", "list"), tt.remaining)
		})
	}
}
