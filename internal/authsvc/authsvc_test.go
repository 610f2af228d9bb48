package authsvc

import (
	"testing"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/special"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateAndVerify(t *testing.T) {
	source := InlineUserSource{Users: []config.AuthUser{
		{Username: "admin", Password: special.HashString("secret"), ID: 1.0, Role: "admin"},
	}}
	svc := New(source, time.Hour)

	result := svc.Authenticate("admin", "secret")
	require.True(t, result.IsOk())
	token := result.Value().Token

	subject, ok := svc.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "admin", subject.Role)
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	source := InlineUserSource{Users: []config.AuthUser{
		{Username: "admin", Password: special.HashString("secret")},
	}}
	svc := New(source, time.Hour)

	result := svc.Authenticate("admin", "wrong")
	require.False(t, result.IsOk())
	assert.Equal(t, "auth-unauthorized", string(result.Error().Kind))
}

func TestVerifyRemovesExpiredToken(t *testing.T) {
	source := InlineUserSource{Users: []config.AuthUser{{Username: "u", Password: special.HashString("p")}}}
	svc := New(source, time.Millisecond)

	result := svc.Authenticate("u", "p")
	require.True(t, result.IsOk())
	token := result.Value().Token

	time.Sleep(5 * time.Millisecond)
	_, ok := svc.Verify(token)
	assert.False(t, ok)

	_, ok = svc.Verify(token)
	assert.False(t, ok)
}

func TestRevokeInvalidatesToken(t *testing.T) {
	source := InlineUserSource{Users: []config.AuthUser{{Username: "u", Password: special.HashString("p")}}}
	svc := New(source, time.Hour)
	token := svc.Authenticate("u", "p").Value().Token

	svc.Revoke(token)
	_, ok := svc.Verify(token)
	assert.False(t, ok)
}

func TestExtractToken(t *testing.T) {
	token, ok := ExtractToken("Bearer abc123")
	require.True(t, ok)
	assert.Equal(t, "abc123", token)

	_, ok = ExtractToken("abc123")
	assert.False(t, ok)
}

func TestAuthorizeOwnerResolution(t *testing.T) {
	resource := config.Resource{OwnedBy: "userId"}
	access := config.Access{config.ActionUpdate: {"owner"}}

	owner := &Subject{ID: 10.0}
	other := &Subject{ID: 11.0}
	record := query.Record{"userId": 10.0}

	assert.Equal(t, Allow, Authorize(access, config.ActionUpdate, resource, owner, record))
	assert.Equal(t, DenyForbidden, Authorize(access, config.ActionUpdate, resource, other, record))
	assert.Equal(t, DenyUnauthenticated, Authorize(access, config.ActionUpdate, resource, nil, record))
}

func TestAuthorizeEmptyListAllows(t *testing.T) {
	resource := config.Resource{}
	access := config.Access{}
	assert.Equal(t, Allow, Authorize(access, config.ActionList, resource, nil, nil))
}

func TestAuthorizeWildcardAllowsAnyAuthenticated(t *testing.T) {
	resource := config.Resource{}
	access := config.Access{config.ActionList: {"*"}}
	assert.Equal(t, Allow, Authorize(access, config.ActionList, resource, &Subject{}, nil))
	assert.Equal(t, DenyUnauthenticated, Authorize(access, config.ActionList, resource, nil, nil))
}

func TestActionForMethod(t *testing.T) {
	action, ok := ActionForMethod("GET", false)
	require.True(t, ok)
	assert.Equal(t, config.ActionList, action)

	action, ok = ActionForMethod("GET", true)
	require.True(t, ok)
	assert.Equal(t, config.ActionGet, action)

	action, ok = ActionForMethod("PATCH", true)
	require.True(t, ok)
	assert.Equal(t, config.ActionUpdate, action)
}
