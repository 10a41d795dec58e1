package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeGoogle records the Drive and Sheets calls made by googleAPI.
type fakeGoogle struct {
	created map[string]any
	values  map[string]any
	batch   map[string]any
}

func (f *fakeGoogle) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	decode := func(r *http.Request) map[string]any {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return body
	}
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	// Drive paths are relative to the endpoint, so both clients share one server root.
	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("supportsAllDrives"))
		f.created = decode(r)
		reply(w, map[string]string{"id": "ss-1"})
	})
	mux.HandleFunc("GET /v4/spreadsheets/ss-1", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, map[string]any{"sheets": []any{map[string]any{"properties": map[string]any{"sheetId": 0}}}})
	})
	mux.HandleFunc("PUT /v4/spreadsheets/ss-1/values/A1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		f.values = decode(r)
		reply(w, map[string]any{})
	})
	mux.HandleFunc("POST /v4/spreadsheets/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ss-1:batchUpdate", r.PathValue("id"))
		f.batch = decode(r)
		reply(w, map[string]any{})
	})
	return mux
}

func newTestGoogleAPI(t *testing.T) (*googleAPI, *fakeGoogle) {
	t.Helper()
	fake := &fakeGoogle{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	api, err := newGoogleAPI(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return api, fake
}

func TestGoogleAPI_PublishFlow(t *testing.T) {
	api, fake := newTestGoogleAPI(t)
	p := &Publisher{api: api, folderID: "folder-1", logger: testPublisher(nil).logger}

	require.NoError(t, p.Publish(context.Background(), flaggedReport()))

	assert.Equal(t, "2024-03-10", fake.created["name"])
	assert.Equal(t, spreadsheetMimeType, fake.created["mimeType"])
	assert.Equal(t, []any{"folder-1"}, fake.created["parents"])

	rows, ok := fake.values["values"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "CEHQ Debit Actuel", rows[0].([]any)[1])

	reqs, ok := fake.batch["requests"].([]any)
	require.True(t, ok)
	require.Len(t, reqs, 1)
	repeat := reqs[0].(map[string]any)["repeatCell"].(map[string]any)
	assert.Equal(t, "userEnteredFormat.backgroundColor", repeat["fields"])
	rng := repeat["range"].(map[string]any)
	assert.Equal(t, 0.0, rng["sheetId"], "sheet id 0 must be sent")
	assert.Equal(t, 1.0, rng["startRowIndex"])
	assert.Equal(t, 2.0, rng["endRowIndex"])
	assert.Equal(t, 6.0, rng["startColumnIndex"])
	assert.Equal(t, 7.0, rng["endColumnIndex"])
}

func TestCellRange_ForcesZeroIndexes(t *testing.T) {
	data, err := json.Marshal(cellRange(0, domain.AlertFlag{Row: 0, Column: 0}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"sheetId":0,"startRowIndex":0,"endRowIndex":1,"startColumnIndex":0,"endColumnIndex":1}`, string(data))
}
