package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asdm/internal/app/role"
)

func TestDashboard_Empty(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("agent@asdm.sn", role.Agent)
	ts.seedUser("awa@asdm.sn", role.Demandeur)
	staff := ts.login("agent@asdm.sn")

	w := ts.do(http.MethodGet, "/api/dashboard/metriques", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := decode(t, w)
	assert.EqualValues(t, 0, m["taux_acceptation"])
	assert.EqualValues(t, 0, m["delai_moyen_traitement_jours"])
	assert.Equal(t, []any{}, m["top_agents"])

	w = ts.do(http.MethodGet, "/api/dashboard/metriques?top=beaucoup", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/dashboard/stats", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode(t, w)
	assert.EqualValues(t, 0, st["total_demandes"])
	assert.EqualValues(t, 1, st["utilisateurs_par_role"].(map[string]any)["agent"])
	assert.EqualValues(t, 0, st["utilisateurs_par_role"].(map[string]any)["admin"])
	assert.EqualValues(t, 0, st["paiements_par_statut"].(map[string]any)["traite"])

	w = ts.do(http.MethodGet, "/api/dashboard/stats", ts.login("awa@asdm.sn"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDashboard_Charts(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("awa@asdm.sn", role.Demandeur)
	ts.seedUser("agent@asdm.sn", role.Agent)
	applicant := ts.login("awa@asdm.sn")

	ts.submit(applicant, map[string]any{"type": "formation", "montant": 100})
	ts.submit(applicant, map[string]any{"type": "formation", "montant": 50})
	ts.submit(applicant, map[string]any{"type": "equipement", "montant": 25})

	w := ts.do(http.MethodGet, "/api/dashboard/graphiques", ts.login("agent@asdm.sn"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	charts := decode(t, w)

	months := charts["demandes_par_mois"].([]any)
	require.Len(t, months, 12)
	last := months[11].(map[string]any)
	assert.Equal(t, ts.h.now().Format("2006-01"), last["mois"])
	assert.EqualValues(t, 3, last["total"])
	assert.EqualValues(t, 0, months[0].(map[string]any)["total"])

	byType := charts["demandes_par_type"].(map[string]any)
	assert.EqualValues(t, 2, byType["formation"])
	assert.EqualValues(t, 1, byType["equipement"])
	assert.EqualValues(t, 0, byType["soutien_financier"])
	assert.EqualValues(t, 150, charts["montants_par_type"].(map[string]any)["formation"])
}

func TestReports_Generate(t *testing.T) {
	ts := newTestServer(t)
	agentUser := ts.seedUser("agent@asdm.sn", role.Agent)
	ts.seedUser("admin@asdm.sn", role.Admin)
	staff := ts.login("agent@asdm.sn")
	admin := ts.login("admin@asdm.sn")

	body := map[string]any{"periode": "2024-T1", "format": "csv"}
	w := ts.do(http.MethodPost, "/api/rapports/generer", staff, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "agent_profile_missing", fieldErrors(t, w)["agent_id"])

	w = ts.do(http.MethodPost, "/api/agents", admin, map[string]any{"utilisateur_id": agentUser.ID, "departement": "Finances"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	agentID := decode(t, w)["id"]

	w = ts.do(http.MethodPost, "/api/rapports/generer", staff, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rep := decode(t, w)
	assert.Equal(t, agentID, rep["agent_id"])
	assert.True(t, strings.HasPrefix(rep["contenu"].(string), "indicateur,cle,valeur\n"))
	assert.Contains(t, rep["contenu"], "utilisateurs_par_role,agent,1")
	st := rep["statistiques"].(map[string]any)
	assert.EqualValues(t, 0, st["total_demandes"])

	w = ts.do(http.MethodPost, "/api/rapports/generer", admin, map[string]any{"periode": "2024", "format": "pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "required", fieldErrors(t, w)["agent_id"])

	w = ts.do(http.MethodPost, "/api/rapports/generer", admin, map[string]any{"periode": "2024", "format": "pdf", "agent_id": agentID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["contenu"], "Rapport ASDM")

	w = ts.do(http.MethodGet, "/api/rapports?format=csv", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}
