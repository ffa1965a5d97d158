package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		schemes  []string
		want     bool
	}{
		{"http localhost", "http://localhost:8545", []string{"http", "https"}, true},
		{"https domain", "https://eth-holesky.example.org/v2/key", []string{"http", "https"}, true},
		{"upper case scheme", "HTTPS://rpc.example.org", []string{"https"}, true},
		{"ws", "ws://127.0.0.1:8546", []string{"ws", "wss"}, true},
		{"scheme not allowed", "ws://127.0.0.1:8546", []string{"http", "https"}, false},
		{"no scheme", "localhost:8545", []string{"http"}, false},
		{"no host", "http://", []string{"http"}, false},
		{"empty", "", []string{"http"}, false},
		{"garbage", "://bad", []string{"http"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEndpoint(tt.endpoint, tt.schemes...))
		})
	}
}
