package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/oauth"
	"github.com/iliyamo/michels-travel/internal/service"
	"github.com/iliyamo/michels-travel/internal/utils"
)

const stateTTL = 10 * time.Minute

// OAuthHandler runs the authorization-code flow against the identity portal.
// A nil Portal means the portal is not configured and both routes answer 404.
type OAuthHandler struct {
	Portal          oauth.Exchanger
	Auth            service.AuthUseCase
	Secret          string
	SuccessRedirect string
	Log             *logger.Logger
}

// Login redirects the browser to the portal with a signed state value.
func (h *OAuthHandler) Login(c echo.Context) error {
	if h.Portal == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "oauth is not enabled"})
	}
	state, err := utils.NewStateToken(h.Secret, stateTTL)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.Redirect(http.StatusFound, h.Portal.AuthCodeURL(state))
}

// Callback verifies state, exchanges the code and signs the user in.
func (h *OAuthHandler) Callback(c echo.Context) error {
	if h.Portal == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "oauth is not enabled"})
	}
	if e := c.QueryParam("error"); e != "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization denied: " + e})
	}
	if err := utils.VerifyStateToken(h.Secret, c.QueryParam("state")); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid state"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return badRequest(c, "code required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := h.Portal.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrIncompleteProfile) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "identity provider returned an incomplete profile"})
		}
		h.Log.Warn("oauth exchange failed", "error", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization failed"})
	}
	sess, err := h.Auth.OAuthLogin(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}

	if h.SuccessRedirect == "" {
		return c.JSON(http.StatusOK, sessionResp(sess))
	}
	frag := url.Values{}
	frag.Set("access_token", sess.Access.Token)
	frag.Set("expires_at", strconv.FormatInt(sess.Access.Exp.Unix(), 10))
	frag.Set("refresh_token", sess.Refresh.Raw)
	return c.Redirect(http.StatusFound, h.SuccessRedirect+"#"+frag.Encode())
}
