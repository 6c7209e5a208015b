package handlers

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/snapfront/internal/session"
	"git.home.luguber.info/inful/snapfront/internal/storeapi"
)

func TestParseCheckbox(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"on", true, false},
		{"true", true, false},
		{"false", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseCheckbox(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestViews_RenderFlashesAndEscaping(t *testing.T) {
	views, err := NewViews()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	err = views.Render(w, http.StatusOK, PageSnaps, PageData{
		Store:   &storeapi.Store{ID: "s1", Name: "<Store>"},
		Flashes: []session.Flash{{Message: "Changes saved", Category: session.FlashPositive}},
	})
	require.NoError(t, err)
	body := w.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "&lt;Store&gt;")
	assert.Contains(t, body, `p-notification--positive`)
	assert.Contains(t, body, "This store has no snaps yet.")
}

func TestViews_UnknownPage(t *testing.T) {
	views, err := NewViews()
	require.NoError(t, err)
	w := httptest.NewRecorder()
	assert.Error(t, views.Render(w, http.StatusOK, "nope", PageData{}))
	assert.Equal(t, 0, w.Body.Len())
}

func TestFlashErrorList(t *testing.T) {
	sess := &session.Session{}
	assert.False(t, flashErrorList(sess, stderrors.New("plain")))
	assert.Empty(t, sess.Flashes)

	list := &storeapi.ErrorList{Status: 400, Errors: []storeapi.APIError{{Code: "x", Message: "Bad role"}}}
	assert.True(t, flashErrorList(sess, list))
	assert.Equal(t, []session.Flash{{Message: "Bad role", Category: session.FlashNegative}}, sess.Flashes)
}
