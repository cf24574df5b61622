package credential_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/credential"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/sqlite"
)

func newService(t *testing.T) (*credential.Service, *sql.DB) {
	t.Helper()
	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = sqlite.MigrateUp(context.Background(), db)
	require.NoError(t, err)

	c, err := credential.NewCipher("test-secret")
	require.NoError(t, err)
	return credential.NewService(db, c, zerolog.Nop()), db
}

func TestService_CreateAndGet(t *testing.T) {
	t.Parallel()

	svc, db := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, credential.CreateInput{
		ProjectName: " ENBDX ",
		Token:       "plain-token",
		BaseURL:     "https://jira.example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "ENBDX", created.ProjectName)
	assert.Equal(t, "plain-token", created.Token)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT token FROM project_credentials WHERE project_name = 'ENBDX'`).Scan(&stored))
	assert.NotEqual(t, "plain-token", stored)

	got, err := svc.Get(ctx, "ENBDX")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "plain-token", got.Token)
	assert.Equal(t, "https://jira.example.com", got.BaseURL)
	assert.Empty(t, got.ProxyURL)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	cases := []credential.CreateInput{
		{Token: "t"},
		{ProjectName: "P"},
		{ProjectName: "P", Token: "t", BaseURL: "not a url"},
		{ProjectName: "P", Token: "t", ProxyURL: "::"},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, in)
		assert.ErrorIs(t, err, credential.ErrInvalidCredential, "%+v", in)
	}
}

func TestService_CreateDuplicate(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, credential.CreateInput{ProjectName: "ENBDX", Token: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, credential.CreateInput{ProjectName: "ENBDX", Token: "b"})
	assert.ErrorIs(t, err, credential.ErrDuplicateProject)
}

func TestService_PartialUpdate(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, credential.CreateInput{
		ProjectName: "ENBDX", Token: "old", BaseURL: "https://a.example.com", ProxyURL: "http://proxy:8080",
	})
	require.NoError(t, err)

	token := "new"
	updated, err := svc.Update(ctx, "ENBDX", credential.UpdateInput{Token: &token})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Token)
	assert.Equal(t, "https://a.example.com", updated.BaseURL)
	assert.Equal(t, "http://proxy:8080", updated.ProxyURL)

	empty := ""
	updated, err = svc.Update(ctx, "ENBDX", credential.UpdateInput{ProxyURL: &empty})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Token)
	assert.Empty(t, updated.ProxyURL)

	_, err = svc.Update(ctx, "NOPE", credential.UpdateInput{Token: &token})
	assert.ErrorIs(t, err, credential.ErrCredentialNotFound)

	bad := "nope"
	_, err = svc.Update(ctx, "ENBDX", credential.UpdateInput{BaseURL: &bad})
	assert.ErrorIs(t, err, credential.ErrInvalidCredential)
}

func TestService_ListAndDelete(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, p := range []string{"ZED", "ABC"} {
		_, err := svc.Create(ctx, credential.CreateInput{ProjectName: p, Token: "t-" + p})
		require.NoError(t, err)
	}
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ABC", list[0].ProjectName)
	assert.Equal(t, "t-ABC", list[0].Token)

	require.NoError(t, svc.Delete(ctx, "ABC"))
	assert.ErrorIs(t, svc.Delete(ctx, "ABC"), credential.ErrCredentialNotFound)
	_, err = svc.Get(ctx, "ABC")
	assert.ErrorIs(t, err, credential.ErrCredentialNotFound)
}

func TestService_WrongSecretCannotRead(t *testing.T) {
	t.Parallel()

	svc, db := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, credential.CreateInput{ProjectName: "ENBDX", Token: "t"})
	require.NoError(t, err)

	other, err := credential.NewCipher("another-secret")
	require.NoError(t, err)
	_, err = credential.NewService(db, other, zerolog.Nop()).Get(ctx, "ENBDX")
	assert.ErrorIs(t, err, credential.ErrCiphertext)
}
