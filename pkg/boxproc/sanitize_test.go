package boxproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeAddresses(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"localhost", `requests.get("http://localhost:8000")`, `requests.get("http://blocked_address:8000")`},
		{"loopback ip", `socket.connect(("127.0.0.1", 80))`, `socket.connect(("blocked_address", 80))`},
		{"any address", `bind("0.0.0.0", 9000)`, `bind("blocked_address", 9000)`},
		{"no match", `print("hello")`, `print("hello")`},
		{"multiple", "localhost and 127.0.0.1 and 0.0.0.0", "blocked_address and blocked_address and blocked_address"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeAddresses(tc.in))
		})
	}
}

func TestNewMarkerIsUnique(t *testing.T) {
	a := newMarker()
	b := newMarker()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "__COMPLETE_")
}
