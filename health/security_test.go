package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"ontology path", "Overlay.New: load ontology failed: open /data/mesh/desc2014.xml", "Overlay.New: load ontology failed: open [PATH]"},
		{"windows path", "cannot read C:\\mesh\\desc2014.xml", "cannot read [PATH]"},
		{"http url", "fetch https://nlm.nih.gov/mesh/desc.xml failed", "fetch [URL] failed"},
		{"nats url", "cannot connect to nats://localhost:4222", "cannot connect to [URL]"},
		{"ip address", "timeout connecting to 192.168.1.100", "timeout connecting to [IP]"},
		{"port", "failed to bind to :8080", "failed to bind to [PORT]"},
		{"credential", "auth failed with token=abc123", "auth failed with [REDACTED]"},
		{"plain", "graph is not a rooted DAG", "graph is not a rooted DAG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeErrorMessage(tt.input))
		})
	}
}
