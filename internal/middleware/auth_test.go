package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/datewheel/pkg/httpcontext"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func run(mw func(fasthttp.RequestHandler) fasthttp.RequestHandler, authorization string) (*fasthttp.RequestCtx, string) {
	var member string
	ctx := &fasthttp.RequestCtx{}
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	mw(func(ctx *fasthttp.RequestCtx) {
		member = httpcontext.Member(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})(ctx)
	return ctx, member
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	mw := JWTAuth("s3cret", "datewheel", nil)
	token := sign(t, "s3cret", jwt.MapClaims{
		"member": "alex",
		"iss":    "datewheel",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	ctx, member := run(mw, "Bearer "+token)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "alex", member)
}

func TestJWTAuthFallsBackToSubject(t *testing.T) {
	token := sign(t, "s3cret", jwt.MapClaims{"sub": "jo"})
	_, member := run(JWTAuth("s3cret", "", nil), token)
	assert.Equal(t, "jo", member)
}

func TestJWTAuthRejects(t *testing.T) {
	mw := JWTAuth("s3cret", "datewheel", nil)

	cases := map[string]string{
		"missing":      "",
		"wrong secret": "Bearer " + sign(t, "other", jwt.MapClaims{"iss": "datewheel"}),
		"wrong issuer": "Bearer " + sign(t, "s3cret", jwt.MapClaims{"iss": "elsewhere"}),
		"expired":      "Bearer " + sign(t, "s3cret", jwt.MapClaims{"iss": "datewheel", "exp": time.Now().Add(-time.Minute).Unix()}),
		"garbage":      "Bearer not-a-token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			ctx, _ := run(mw, header)
			assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		})
	}
}

func TestJWTAuthDisabledWithoutSecret(t *testing.T) {
	ctx, member := run(JWTAuth("", "", nil), "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Empty(t, member)
}
