package settings

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailproof/internal/model"
	"mailproof/internal/secret"
)

func newTestRepo(t *testing.T) (*Repository, *secret.Codec) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	codec := secret.NewCodec("master-key")
	return NewRepository(rdb, codec), codec
}

func parentInput() *model.Settings {
	return &model.Settings{
		SiteRole:       model.RoleParent,
		NotifyAddress:  "inbox@example.com",
		TargetDay:      "Friday",
		ExpectedTokens: "alpha\nbeta",
	}
}

func TestRepository_LoadFreshDeployment(t *testing.T) {
	repo, _ := newTestRepo(t)

	st, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.Settings{}, st)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo, codec := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, parentInput(), "app-password"))

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RoleParent, st.SiteRole)
	assert.Equal(t, "inbox@example.com", st.NotifyAddress)
	assert.Equal(t, "Friday", st.TargetDay)
	assert.Equal(t, "alpha\nbeta", st.ExpectedTokens)

	// stored encrypted, never in plaintext
	assert.NotEqual(t, "app-password", st.MailboxSecret)
	got, err := codec.Decrypt(st.MailboxSecret)
	require.NoError(t, err)
	assert.Equal(t, "app-password", got)
}

func TestRepository_BlankPasswordPreservesBlob(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, parentInput(), "app-password"))
	first, err := repo.Load(ctx)
	require.NoError(t, err)

	// re-submit the form with the password field left blank
	update := parentInput()
	update.TargetDay = "Monday"
	require.NoError(t, repo.Save(ctx, update, ""))

	second, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Monday", second.TargetDay)
	assert.Equal(t, first.MailboxSecret, second.MailboxSecret,
		"blank password must keep the stored blob")
}

func TestRepository_ResubmittedBlobKeptVerbatim(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, parentInput(), "app-password"))
	first, err := repo.Load(ctx)
	require.NoError(t, err)

	// a form that round-trips the stored blob must not double-encrypt it
	require.NoError(t, repo.Save(ctx, parentInput(), first.MailboxSecret))

	second, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.MailboxSecret, second.MailboxSecret)
}

func TestRepository_Reset(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, parentInput(), "app-password"))
	require.NoError(t, repo.Reset(ctx))

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.Settings{}, st)

	// reset is idempotent
	require.NoError(t, repo.Reset(ctx))
}
