package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asdm/internal/app/role"
)

func TestNotifications_ScopedToRecipient(t *testing.T) {
	ts := newTestServer(t)
	awa := ts.seedUser("awa@asdm.sn", role.Demandeur)
	omar := ts.seedUser("omar@asdm.sn", role.Demandeur)
	ts.seedUser("agent@asdm.sn", role.Agent)
	staff := ts.login("agent@asdm.sn")
	awaSid := ts.login("awa@asdm.sn")

	send := func(to uint, content, priority string) uint {
		w := ts.do(http.MethodPost, "/api/notifications", staff, map[string]any{
			"utilisateur_id": to,
			"type":           "in_app",
			"priorite":       priority,
			"contenu":        content,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		n := decode(t, w)
		assert.Equal(t, false, n["lu"])
		return uint(n["id"].(float64))
	}
	mine := send(awa.ID, "Pièce manquante", "haute")
	send(awa.ID, "Bienvenue", "")
	theirs := send(omar.ID, "Dossier reçu", "basse")

	w := ts.do(http.MethodPost, "/api/notifications", awaSid, map[string]any{"utilisateur_id": omar.ID, "type": "sms", "contenu": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/api/notifications", staff, map[string]any{"utilisateur_id": 999, "type": "sms", "contenu": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_found", fieldErrors(t, w)["utilisateur_id"])

	w = ts.do(http.MethodGet, "/api/notifications", awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	// the recipient filter cannot widen the caller's scope
	w = ts.do(http.MethodGet, fmt.Sprintf("/api/notifications?utilisateur_id=%d", omar.ID), awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = ts.do(http.MethodGet, "/api/notifications?priorite=haute", awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = ts.do(http.MethodGet, "/api/notifications", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])

	w = ts.do(http.MethodGet, fmt.Sprintf("/api/notifications/%d", theirs), awaSid, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ts.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/marquer-lu", theirs), awaSid, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodGet, "/api/notifications/non-lues", awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["non_lues"])

	w = ts.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/marquer-lu", mine), awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["lu"])

	w = ts.do(http.MethodGet, "/api/notifications?lu=false", awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = ts.do(http.MethodGet, "/api/notifications/non-lues", awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["non_lues"])

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/notifications/%d", mine), awaSid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNotifications_Update(t *testing.T) {
	ts := newTestServer(t)
	awa := ts.seedUser("awa@asdm.sn", role.Demandeur)
	ts.seedUser("agent@asdm.sn", role.Agent)
	staff := ts.login("agent@asdm.sn")
	awaSid := ts.login("awa@asdm.sn")

	w := ts.do(http.MethodPost, "/api/notifications", staff, map[string]any{
		"utilisateur_id": awa.ID,
		"type":           "email",
		"contenu":        "Rendez-vous lundi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	path := fmt.Sprintf("/api/notifications/%d", uint(decode(t, w)["id"].(float64)))

	w = ts.do(http.MethodPut, path, awaSid, map[string]any{"contenu": "changed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPut, path, staff, map[string]any{"contenu": "Rendez-vous mardi", "priorite": "haute"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n := decode(t, w)
	assert.Equal(t, "Rendez-vous mardi", n["contenu"])
	assert.Equal(t, "haute", n["priorite"])
	assert.Equal(t, "email", n["type"])
	assert.Equal(t, false, n["lu"])

	w = ts.do(http.MethodPut, path, staff, map[string]any{"contenu": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "required", fieldErrors(t, w)["contenu"])

	w = ts.do(http.MethodPut, path, staff, map[string]any{"lu": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["lu"])

	w = ts.do(http.MethodPut, path, staff, map[string]any{"lu": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cannot_unread", fieldErrors(t, w)["lu"])

	w = ts.do(http.MethodGet, path, awaSid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	n = decode(t, w)
	assert.Equal(t, true, n["lu"])
	assert.Equal(t, "Rendez-vous mardi", n["contenu"])
}
