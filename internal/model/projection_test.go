package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pos-service/internal/model"
)

func TestOrderView_ExcludesInternalFields(t *testing.T) {
	order := &model.Order{
		ID:        uuid.New(),
		Name:      "Sinigang",
		Price:     220.00,
		Quantity:  1,
		Served:    true,
		TableID:   uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	b, err := json.Marshal(order.View())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))

	require.Contains(t, decoded, "id")
	require.Contains(t, decoded, "name")
	require.Contains(t, decoded, "price")
	require.Contains(t, decoded, "quantity")
	require.Contains(t, decoded, "served")

	require.NotContains(t, decoded, "table_id")
	require.NotContains(t, decoded, "created_at")
	require.NotContains(t, decoded, "updated_at")
}

func TestUserProfile_Shape(t *testing.T) {
	user := &model.User{
		Name:                "Alice",
		Email:               "alice@example.com",
		PasswordDigest:      "$2a$04$notarealdigest",
		AuthenticationToken: "secret-token",
	}
	tables := []model.Table{
		{ID: uuid.New(), Name: "Table 1"},
		{ID: uuid.New(), Name: "Table 2"},
	}

	b, err := json.Marshal(user.Profile(tables))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))

	require.Equal(t, "Alice", decoded["name"])
	require.Equal(t, "alice@example.com", decoded["email"])
	require.Len(t, decoded["tables"], 2)

	// Credentials never leave through the projection.
	require.NotContains(t, string(b), "digest")
	require.NotContains(t, string(b), "secret-token")

	entry := decoded["tables"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, map[string]interface{}{"name": "Table 1"}, entry)
}

func TestUserProfile_NoTables(t *testing.T) {
	user := &model.User{Name: "Bob", Email: "bob@example.com"}

	b, err := json.Marshal(user.Profile(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Bob","email":"bob@example.com","tables":[]}`, string(b))
}
