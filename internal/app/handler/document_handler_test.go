package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asdm/internal/app/role"
)

func (ts *testServer) upload(sid, path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	ts.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(ts.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(uploadField, filename)
		require.NoError(ts.t, err)
		_, err = fw.Write(content)
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Session-ID", sid)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestUploadDocument_SizeIsStoredBytes(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("awa@asdm.sn", role.Demandeur)
	ts.seedUser("omar@asdm.sn", role.Demandeur)
	applicant := ts.login("awa@asdm.sn")
	other := ts.login("omar@asdm.sn")

	id := uint(ts.submit(applicant, map[string]any{"type": "equipement", "montant": 90000})["id"].(float64))
	content := bytes.Repeat([]byte("devis "), 205)

	w := ts.upload(applicant, "/api/documents", map[string]string{
		"demande_id":     fmt.Sprint(id),
		"nom":            "Devis fournisseur",
		"type":           "devis",
		"taille_fichier": "1",
	}, "devis.pdf", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode(t, w)
	assert.EqualValues(t, len(content), doc["taille_fichier"])
	assert.Equal(t, "application/pdf", doc["content_type"])
	assert.Contains(t, doc["chemin_fichier"], "documents/")
	docID := uint(doc["id"].(float64))

	w = ts.do(http.MethodGet, fmt.Sprintf("/api/documents/%d/fichier", docID), applicant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Devis fournisseur")

	w = ts.do(http.MethodGet, fmt.Sprintf("/api/documents/%d", docID), other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodGet, "/api/documents", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = ts.do(http.MethodGet, fmt.Sprintf("/api/demandes/%d/documents", id), applicant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = ts.do(http.MethodPut, fmt.Sprintf("/api/documents/%d", docID), applicant, map[string]string{"type": "justificatif"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "justificatif", decode(t, w)["type"])
	assert.EqualValues(t, len(content), decode(t, w)["taille_fichier"])

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/documents/%d", docID), applicant, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodGet, fmt.Sprintf("/api/documents/%d/fichier", docID), applicant, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadDocument_Rejects(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("awa@asdm.sn", role.Demandeur)
	ts.seedUser("omar@asdm.sn", role.Demandeur)
	applicant := ts.login("awa@asdm.sn")
	other := ts.login("omar@asdm.sn")

	id := uint(ts.submit(applicant, map[string]any{"type": "formation", "montant": 100})["id"].(float64))
	path := fmt.Sprintf("/api/demandes/%d/documents", id)
	fields := map[string]string{"nom": "CNI", "type": "piece_identite"}

	w := ts.upload(applicant, path, fields, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "required", fieldErrors(t, w)[uploadField])

	w = ts.upload(applicant, path, map[string]string{"nom": "CNI", "type": "passeport"}, "cni.png", []byte("png"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_choice", fieldErrors(t, w)["type"])

	w = ts.upload(other, path, fields, "cni.png", []byte("png"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	ts.h.Config.Storage.MaxSize = 10
	w = ts.upload(applicant, path, fields, "cni.png", bytes.Repeat([]byte{1}, 11))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "too_large", fieldErrors(t, w)[uploadField])

	w = ts.upload(applicant, "/api/demandes/777/documents", fields, "cni.png", []byte("png"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.upload(applicant, path, fields, "cni.png", []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 3, decode(t, w)["taille_fichier"])
}
