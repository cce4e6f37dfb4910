package web

import (
	"net/http"

	"github.com/JonMunkholm/olympics/internal/logging"
	"github.com/JonMunkholm/olympics/internal/web/views"
	"github.com/a-h/templ"
)

// handleHome renders the dashboard from the current state.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	st, ok := current(w, r, s.store.State())
	if !ok {
		return
	}
	games, ok := current(w, r, s.queries.UniqueGamesCount())
	if !ok {
		return
	}
	share, ok := current(w, r, s.queries.MedalShareByCountry())
	if !ok {
		return
	}

	render(w, r, views.Home(views.HomeData{
		Loading:    st.Loading,
		LastError:  st.LastError,
		GamesCount: games,
		Countries:  len(st.Snapshot),
		Loaded:     st.Snapshot != nil,
		MedalShare: share,
	}))
}

// handleDetail renders one country's page. Unknown countries still render,
// with absent figures, so the page fills in once a later load contains them.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	st, ok := current(w, r, s.store.State())
	if !ok {
		return
	}
	detail, ok := current(w, r, s.queries.CountryDetail(name))
	if !ok {
		return
	}

	render(w, r, views.Detail(views.DetailData{
		Loading:   st.Loading,
		LastError: st.LastError,
		Detail:    detail,
	}))
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
