package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeAdmins struct {
	calls   []string
	created bool
	err     error
}

func (f *fakeAdmins) EnsureAdmin(_ context.Context, email, _ string) (bool, error) {
	f.calls = append(f.calls, email)
	return f.created, f.err
}

func TestCreateDefaultAdmin(t *testing.T) {
	ctx := context.Background()

	f := &fakeAdmins{}
	assert.NoError(t, CreateDefaultAdmin(ctx, f, "", "", zerolog.Nop()))
	assert.Empty(t, f.calls)

	f = &fakeAdmins{created: true}
	assert.NoError(t, CreateDefaultAdmin(ctx, f, "root@example.com", "rootpass1", zerolog.Nop()))
	assert.Equal(t, []string{"root@example.com"}, f.calls)

	f = &fakeAdmins{err: errors.New("db down")}
	assert.Error(t, CreateDefaultAdmin(ctx, f, "root@example.com", "rootpass1", zerolog.Nop()))
}
