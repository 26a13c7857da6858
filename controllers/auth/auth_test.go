package auth

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inverpulse/database"
	"inverpulse/database/dbtest"
	"inverpulse/middleware"
	"inverpulse/tiers"
	"inverpulse/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "email", "name", "password", "role", "status"}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLoginHandler_UnknownEmail(t *testing.T) {
	mock := dbtest.UseMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns))

	rec := httptest.NewRecorder()
	LoginHandler(rec, jsonRequest(http.MethodPost, "/v1/login", `{"email":"nobody@example.com","password":"whatever1"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, decode(t, rec).Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginHandler_WrongPasswordCountsFailure(t *testing.T) {
	utils.RedisClient = nil
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	mock := dbtest.UseMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(77, "a@example.com", "A", string(hash), "user", "Active"))

	defer middleware.ResetFailedLogin(context.Background(), 77)
	for i := 0; i < middleware.LoginFailuresBeforeLock; i++ {
		if i > 0 {
			mock.ExpectQuery("SELECT \\* FROM `users`").
				WillReturnRows(sqlmock.NewRows(userColumns).AddRow(77, "a@example.com", "A", string(hash), "user", "Active"))
		}
		rec := httptest.NewRecorder()
		LoginHandler(rec, jsonRequest(http.MethodPost, "/v1/login", `{"email":"a@example.com","password":"wrong-pass"}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	locked, _ := middleware.IsAccountLocked(context.Background(), 77)
	assert.True(t, locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginHandler_SuspendedUser(t *testing.T) {
	mock := dbtest.UseMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(5, "s@example.com", "S", "x", "user", "Suspend"))

	rec := httptest.NewRecorder()
	LoginHandler(rec, jsonRequest(http.MethodPost, "/v1/login", `{"email":"s@example.com","password":"whatever1"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginHandler_SetsSessionCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "auth-secret")
	t.Setenv("JWT_AUD", "")
	t.Setenv("JWT_ISS", "")
	utils.RedisClient = nil
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	mock := dbtest.UseMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(9, "ok@example.com", "Ok", string(hash), "user", "Active"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `refresh_tokens`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE user_id = \\?").
		WillReturnRows(sqlmock.NewRows(dbtest.InvestorColumns).
			AddRow("inv-9", 9, "ok@example.com", "Ok", "iron", 0.0, "pending", "CODE9", nil, `[]`))

	rec := httptest.NewRecorder()
	LoginHandler(rec, jsonRequest(http.MethodPost, "/v1/login", `{"email":"ok@example.com","password":"correct-horse"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, data["access_token"], session.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterHandler_InvalidReferral(t *testing.T) {
	mock := dbtest.UseMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE referral_code = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(dbtest.InvestorColumns))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	RegisterHandler(rec, jsonRequest(http.MethodPost, "/v1/register",
		`{"name":"New Investor","email":"new@example.com","password":"longenough","password_confirmation":"longenough","referral_code":"nope"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid referral code", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterHandler_ValidationFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RegisterHandler(rec, jsonRequest(http.MethodPost, "/v1/register",
		`{"name":"X","email":"not-an-email","password":"longenough","password_confirmation":"longenough"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// appendedList matches a JSON referral list that extends prior by exactly one
// id and records that id.
type appendedList struct {
	prior []string
	added string
}

func (a *appendedList) Match(v driver.Value) bool {
	raw, ok := v.(string)
	if !ok {
		return false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || len(ids) != len(a.prior)+1 {
		return false
	}
	for i, id := range a.prior {
		if ids[i] != id {
			return false
		}
	}
	a.added = ids[len(ids)-1]
	return a.added != ""
}

func TestRegisterHandler_LinksUnderReferrer(t *testing.T) {
	t.Setenv("JWT_SECRET", "auth-secret")
	t.Setenv("JWT_AUD", "")
	t.Setenv("JWT_ISS", "")
	utils.RedisClient = nil

	mock := dbtest.UseMockDB(t)
	prev := database.Levels
	database.InitLevels(database.DB, tiers.CoordinatorOptions{AllowDowngrade: true})
	t.Cleanup(func() { database.Levels = prev })

	list := &appendedList{prior: []string{"inv-a", "inv-b"}}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\?").
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE referral_code = \\?.*FOR UPDATE").
		WithArgs("REFCODE1", 1).
		WillReturnRows(sqlmock.NewRows(dbtest.InvestorColumns).
			AddRow("inv-ref", 3, "ref@example.com", "Ref", "iron", 0.0, "approved", "REFCODE1", nil, `["inv-a","inv-b"]`))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `investors` WHERE referral_code = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO `investors`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `investors` SET `direct_referrals`=\\?,`updated_at`=\\? WHERE investor_id = \\?").
		WithArgs(list, sqlmock.AnyArg(), "inv-ref").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// referrer re-evaluation: three direct referrals keep it at Iron
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE investor_id = \\?").
		WillReturnRows(sqlmock.NewRows(dbtest.InvestorColumns).
			AddRow("inv-ref", 3, "ref@example.com", "Ref", "iron", 0.0, "approved", "REFCODE1", nil, `["inv-a","inv-b","inv-new"]`))
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE investor_id = \\?").
		WillReturnRows(sqlmock.NewRows(dbtest.InvestorColumns).
			AddRow("inv-ref", 3, "ref@example.com", "Ref", "iron", 0.0, "approved", "REFCODE1", nil, `["inv-a","inv-b","inv-new"]`))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `refresh_tokens`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	RegisterHandler(rec, jsonRequest(http.MethodPost, "/v1/register",
		`{"name":"New Investor","email":"New@Example.com","password":"longenough","password_confirmation":"longenough","referral_code":"refcode1"}`))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	investor := decode(t, rec).Data.(map[string]interface{})["investor"].(map[string]interface{})
	assert.Equal(t, "inv-ref", investor["referred_by"])
	assert.Equal(t, "iron", investor["level"])
	assert.Equal(t, list.added, investor["investor_id"], "referrer list must gain the new investor id")
	assert.NoError(t, mock.ExpectationsWereMet())
}
