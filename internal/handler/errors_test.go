package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/service"
)

func TestFail_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"disabled", service.ErrAccountDisabled, http.StatusForbidden, "account disabled"},
		{"not found wrapped", fmt.Errorf("get booking: %w", service.ErrNotFound), http.StatusNotFound, "not found"},
		{"offer gone", flights.ErrOfferExpired, http.StatusGone, "offer expired"},
		{"hold expired", service.ErrHoldExpired, http.StatusGone, service.ErrHoldExpired.Error()},
		{"transition", service.ErrInvalidTransition, http.StatusConflict, service.ErrInvalidTransition.Error()},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, "email already exists"},
		{"unverified link", service.ErrEmailUnverified, http.StatusConflict, "email already exists; sign in with your password"},
		{"payments off", service.ErrPaymentsUnavailable, http.StatusServiceUnavailable, service.ErrPaymentsUnavailable.Error()},
		{"upstream", &service.UpstreamError{Service: "payments", Err: errors.New("502")}, http.StatusBadGateway, "payments unavailable"},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/", "")

			require.NoError(t, fail(c, logger.Discard(), tc.err))

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestFail_ValidationFields(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "")
	err := &service.ValidationError{Fields: map[string]string{"contact_email": "is required"}}

	require.NoError(t, fail(c, logger.Discard(), fmt.Errorf("create: %w", err)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":{"contact_email":"is required"}}`, rec.Body.String())
}

func TestBind_ReportsFieldPaths(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/v1/bookings",
		`{"offer_id":"off_1","contact_email":"nope","passengers":[{"given_name":"Ada"}]}`)

	var req createBookingReq
	ok, err := bind(c, &req)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "must be a valid email address", body.Fields["contact_email"])
	assert.Equal(t, "is required", body.Fields["passengers[0].family_name"])
	assert.Equal(t, "is required", body.Fields["passengers[0].born_on"])
	assert.NotContains(t, body.Fields, "passengers[0].given_name")
}

func TestBind_MalformedJSON(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/v1/auth/login", `{"email":`)

	var req loginReq
	ok, err := bind(c, &req)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid body"}`, rec.Body.String())
}

func TestPaging(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/?limit=500&offset=-3", "")
	limit, offset, err := paging(c, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)

	c, _ = newContext(http.MethodGet, "/", "")
	limit, offset, err = paging(c, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	c, _ = newContext(http.MethodGet, "/?limit=ten", "")
	_, _, err = paging(c, 20, 100)
	assert.Error(t, err)
}
