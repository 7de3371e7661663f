package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNumbers = []string{"650-253-0000", "650-253-0001", "650-253-0002", "650-253-0003"}

func TestPhoneService_LimitOfThree(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "p@x.com", "password1")

	for _, n := range testNumbers[:3] {
		_, err := env.phones.Add(ctx, "p@x.com", PhoneInput{Number: n, Type: models.PhoneTypeMobile})
		require.NoError(t, err)
	}

	_, err := env.phones.Add(ctx, "p@x.com", PhoneInput{Number: testNumbers[3], Type: models.PhoneTypeHome})
	if !errors.Is(err, common.ErrPhoneLimitExceeded) {
		t.Fatalf("4th phone: want ErrPhoneLimitExceeded, got %v", err)
	}

	list, err := env.phones.List(ctx, "p@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestPhoneService_ConcurrentAddsRespectLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "cc@x.com", "password1")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		added    int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.phones.Add(ctx, "cc@x.com", PhoneInput{Number: testNumbers[i%len(testNumbers)], Type: models.PhoneTypeWork})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				added++
			case errors.Is(err, common.ErrPhoneLimitExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, added)
	assert.Equal(t, 7, rejected)
}

func TestPhoneService_PrimaryIsUnique(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "pr@x.com", "password1")

	first, err := env.phones.Add(ctx, "pr@x.com", PhoneInput{Number: testNumbers[0], Type: models.PhoneTypeMobile, IsPrimary: true})
	require.NoError(t, err)
	second, err := env.phones.Add(ctx, "pr@x.com", PhoneInput{Number: testNumbers[1], Type: models.PhoneTypeWork, IsPrimary: true})
	require.NoError(t, err)

	list, err := env.phones.List(ctx, "pr@x.com")
	require.NoError(t, err)

	primaries := map[string]bool{}
	for _, p := range list {
		primaries[p.ID] = p.IsPrimary
	}
	assert.False(t, primaries[first.ID])
	assert.True(t, primaries[second.ID])
}

func TestPhoneService_DeletePrimaryLeavesNone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "dp@x.com", "password1")

	primary, err := env.phones.Add(ctx, "dp@x.com", PhoneInput{Number: testNumbers[0], Type: models.PhoneTypeMobile, IsPrimary: true})
	require.NoError(t, err)
	_, err = env.phones.Add(ctx, "dp@x.com", PhoneInput{Number: testNumbers[1], Type: models.PhoneTypeHome})
	require.NoError(t, err)

	require.NoError(t, env.phones.Delete(ctx, "dp@x.com", primary.ID))

	list, err := env.phones.List(ctx, "dp@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsPrimary)

	if err := env.phones.Delete(ctx, "dp@x.com", primary.ID); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("second delete: want ErrorNotFound, got %v", err)
	}
}

func TestPhoneService_ForeignPhoneIsNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "owner@x.com", "password1")
	env.registerVerified(t, "other@x.com", "password1")

	p, err := env.phones.Add(ctx, "owner@x.com", PhoneInput{Number: testNumbers[0], Type: models.PhoneTypeMobile})
	require.NoError(t, err)

	got, err := env.phones.Get(ctx, "owner@x.com", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got.Number)

	if _, err := env.phones.Get(ctx, "other@x.com", p.ID); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("foreign get: want ErrorNotFound, got %v", err)
	}
	if err := env.phones.Delete(ctx, "other@x.com", p.ID); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("foreign delete: want ErrorNotFound, got %v", err)
	}
}

func TestPhoneService_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "val@x.com", "password1")

	tests := []struct {
		name string
		in   PhoneInput
	}{
		{"bad number", PhoneInput{Number: "123", Type: models.PhoneTypeMobile}},
		{"bad type", PhoneInput{Number: testNumbers[0], Type: "FAX"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.phones.Add(ctx, "val@x.com", tt.in)
			if !errors.Is(err, common.ErrorValidation) {
				t.Fatalf("want ErrorValidation, got %v", err)
			}
		})
	}
}

func TestPhoneService_UnknownOwner(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.phones.List(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
