package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketforge/ticketforge/config"
	"github.com/ticketforge/ticketforge/internal/entity"
)

func TestUserCreateForwardsCredential(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/collections/users/records", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         "user-1",
			"email":      received["email"],
			"name":       received["name"],
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	client := NewClient(&config.RecordStoreConfig{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		MaxConflicts: 3,
	})
	repo := NewUserRepository(client)

	user := &entity.User{
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "s3cret-pass",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, "user-1", user.ID)

	// The provider runs auth-with-password against credentials it hashed
	// itself, so the create request must carry the raw credential or the
	// account can never log in.
	assert.Equal(t, "s3cret-pass", received["password"])
	assert.Equal(t, "s3cret-pass", received["passwordConfirm"])
	assert.Equal(t, "alice@example.com", received["email"])
}
