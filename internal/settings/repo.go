package settings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mailproof/internal/model"
	"mailproof/internal/secret"
)

// Settings store keys. These names are shared with earlier deployments of
// the same system, so they stay as-is.
const (
	keySiteRole       = "site_role"
	keyNotifyAddress  = "notify_address"
	keyTargetDay      = "target_day"
	keyMailboxSecret  = "mailbox_secret"
	keyExpectedTokens = "expected_tokens"
)

// Repository stores the durable deployment settings in Redis. The mailbox
// password never lands here in plaintext: the write path routes through the
// credential codec and the read path hands back the stored blob untouched.
type Repository struct {
	rdb   *redis.Client
	codec *secret.Codec
}

func NewRepository(rdb *redis.Client, codec *secret.Codec) *Repository {
	return &Repository{rdb: rdb, codec: codec}
}

// Load reads the full settings snapshot. Missing keys come back as zero
// values; a fresh deployment is just an empty Settings.
func (r *Repository) Load(ctx context.Context) (*model.Settings, error) {
	vals, err := r.rdb.MGet(ctx,
		keySiteRole,
		keyNotifyAddress,
		keyTargetDay,
		keyMailboxSecret,
		keyExpectedTokens,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	str := func(i int) string {
		if s, ok := vals[i].(string); ok {
			return s
		}
		return ""
	}

	return &model.Settings{
		SiteRole:       model.SiteRole(str(0)),
		NotifyAddress:  str(1),
		TargetDay:      str(2),
		MailboxSecret:  str(3),
		ExpectedTokens: str(4),
	}, nil
}

// Save overwrites the settings from a form submission. mailboxPassword is
// the raw form value: blank preserves the stored blob, an already-encrypted
// value is kept verbatim, anything else is encrypted (codec semantics).
func (r *Repository) Save(ctx context.Context, st *model.Settings, mailboxPassword string) error {
	previous, err := r.rdb.Get(ctx, keyMailboxSecret).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("read stored secret: %w", err)
	}

	blob := r.codec.Encrypt(mailboxPassword, previous)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keySiteRole, string(st.SiteRole), 0)
		pipe.Set(ctx, keyNotifyAddress, st.NotifyAddress, 0)
		pipe.Set(ctx, keyTargetDay, st.TargetDay, 0)
		pipe.Set(ctx, keyMailboxSecret, blob, 0)
		pipe.Set(ctx, keyExpectedTokens, st.ExpectedTokens, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Reset deletes every settings key. Safe to call repeatedly.
func (r *Repository) Reset(ctx context.Context) error {
	err := r.rdb.Del(ctx,
		keySiteRole,
		keyNotifyAddress,
		keyTargetDay,
		keyMailboxSecret,
		keyExpectedTokens,
	).Err()
	if err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}
