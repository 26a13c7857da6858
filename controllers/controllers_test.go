package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inverpulse/database/dbtest"
	"inverpulse/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsHandler_ListsAllTiersInOrder(t *testing.T) {
	rec := httptest.NewRecorder()
	LevelsHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/levels", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Tier          string `json:"tier"`
			SignalsPerDay int    `json:"signals_per_day"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 9)
	assert.Equal(t, "iron", resp.Data[0].Tier)
	assert.Equal(t, "ruby", resp.Data[8].Tier)
	assert.Equal(t, 10, resp.Data[8].SignalsPerDay)
}

func TestLevelHandler(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/v1/levels/{tier}", LevelHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/levels/Silver", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "gold", data["next_level"])
	assert.Len(t, data["visible"], 4)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/levels/emerald", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpireSignalsHandler(t *testing.T) {
	t.Setenv("CRON_KEY", "cron-secret")

	rec := httptest.NewRecorder()
	ExpireSignalsHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/cron/expire-signals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mock := dbtest.UseMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `trading_signals` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/v1/cron/expire-signals", nil)
	req.Header.Set("X-CRON-KEY", "cron-secret")
	rec = httptest.NewRecorder()
	ExpireSignalsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Data.(map[string]interface{})["expired"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
