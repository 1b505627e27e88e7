package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser_RequiresFirebaseUID(t *testing.T) {
	_, err := NewRepo(nil).EnsureUser(context.Background(), UpsertUser{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firebase_uid required")
}

func TestSuperviseeIDs_EmptySupervisor(t *testing.T) {
	ids, err := NewRepo(nil).SuperviseeIDs(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
