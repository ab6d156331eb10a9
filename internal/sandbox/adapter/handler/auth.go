package handler

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	v1 "github.com/Wenrh2004/judge-sandbox/api/v1"
	"github.com/Wenrh2004/judge-sandbox/pkg/adapter"
)

// AuthHandler guards routes with a shared secret carried in a request header.
type AuthHandler struct {
	*adapter.Service
	header string
	secret []byte
}

// NewAuthHandler reads the header name and secret from app.auth.
func NewAuthHandler(conf *viper.Viper, srv *adapter.Service) *AuthHandler {
	return &AuthHandler{
		Service: srv,
		header:  conf.GetString("app.auth.header"),
		secret:  []byte(conf.GetString("app.auth.secret")),
	}
}

func (a *AuthHandler) Authenticate(ctx context.Context, c *app.RequestContext) {
	got := c.GetHeader(a.header)
	if len(a.secret) == 0 || subtle.ConstantTimeCompare(got, a.secret) != 1 {
		a.Logger.WithContext(ctx).Warn("[AuthHandler.Authenticate]rejected request",
			zap.String("path", string(c.Path())), zap.String("remote", c.ClientIP()))
		v1.HandlerError(c, consts.StatusForbidden, v1.ErrForbidden)
		c.Abort()
		return
	}
	c.Next(ctx)
}
