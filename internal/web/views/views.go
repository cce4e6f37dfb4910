// Package views renders the dashboard pages as templ components.
//
// Pages are server-rendered from the current store state and then kept live
// by a small inline script subscribed to the /api/stream endpoints.
package views

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate

import (
	"net/url"
	"strconv"

	"github.com/JonMunkholm/olympics/internal/core"
	"github.com/a-h/templ"
)

// LoadingDelay is how long a load must run before the loading indicator is
// shown, so fast loads never flash it.
const LoadingDelay = 500

// HomeData is the state rendered on the dashboard.
type HomeData struct {
	Loading    bool
	LastError  string
	GamesCount *int
	Countries  int
	Loaded     bool
	MedalShare []core.CountryMedals
}

// DetailData is the state rendered on a country's page.
type DetailData struct {
	Loading   bool
	LastError string
	Detail    core.CountryDetail
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7fb;color:#1d2433}
header{background:#04838f;color:#fff;padding:1rem 2rem}
header a{color:#fff;text-decoration:none}
main{max-width:960px;margin:2rem auto;padding:0 1rem}
.cards{display:flex;gap:1rem;flex-wrap:wrap;margin-bottom:1.5rem}
.card{background:#fff;border-radius:8px;padding:1rem 1.5rem;box-shadow:0 1px 3px rgba(0,0,0,.1);min-width:160px}
.card .label{font-size:.85rem;color:#5b6478}
.card .value{font-size:1.8rem;font-weight:600}
table{width:100%;border-collapse:collapse;background:#fff;border-radius:8px;overflow:hidden}
th,td{padding:.6rem 1rem;text-align:left;border-bottom:1px solid #e6e8ef}
.loading{display:none;color:#5b6478}
.loading.visible{display:block}
.error{background:#fdecea;color:#8a1c12;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.error:empty{display:none}
#toasts{position:fixed;display:flex;flex-direction:column;gap:.5rem;z-index:10}
#toasts.top-right{top:1rem;right:1rem}#toasts.top-left{top:1rem;left:1rem}
#toasts.top-center{top:1rem;left:50%;transform:translateX(-50%)}
#toasts.bottom-right{bottom:1rem;right:1rem}#toasts.bottom-left{bottom:1rem;left:1rem}
#toasts.bottom-center{bottom:1rem;left:50%;transform:translateX(-50%)}
.toast{background:#8a1c12;color:#fff;padding:.75rem 1rem;border-radius:6px;box-shadow:0 2px 6px rgba(0,0,0,.2)}
`

// notificationScript shows notifications from /api/notifications as toasts
// that dismiss themselves after their autoDismissMillis.
const notificationScript = `
(function(){
  var box=document.getElementById("toasts");
  var es=new EventSource("/api/notifications");
  es.addEventListener("notification",function(e){
    var n=JSON.parse(e.data);
    box.className=n.placement;
    var t=document.createElement("div");
    t.className="toast";t.setAttribute("role","alert");
    t.textContent=n.message;
    box.appendChild(t);
    setTimeout(function(){t.remove()},n.autoDismissMillis);
  });
})();
`

// loadingScript toggles the indicator only once loading has lasted
// data-loading-delay milliseconds.
const loadingScript = `
function olyLoading(on){
  var el=document.getElementById("loading");
  clearTimeout(el._t);
  if(!on){el.classList.remove("visible");return}
  el._t=setTimeout(function(){el.classList.add("visible")},+el.dataset.loadingDelay);
}
`

const homeScript = `
(function(){
  var state=new EventSource("/api/stream/state");
  state.addEventListener("update",function(e){
    var s=JSON.parse(e.data);
    olyLoading(s.loading);
    document.getElementById("error").textContent=s.lastError||"";
    document.getElementById("countries").textContent=s.loaded?s.countries:"–";
  });
  var games=new EventSource("/api/stream/games");
  games.addEventListener("update",function(e){
    var g=JSON.parse(e.data);
    document.getElementById("games").textContent=g.count===null?"–":g.count;
  });
  var medals=new EventSource("/api/stream/medals");
  medals.addEventListener("update",function(e){
    var rows=JSON.parse(e.data),body=document.getElementById("share");
    body.textContent="";
    rows.forEach(function(r){
      var tr=document.createElement("tr"),a=document.createElement("a"),td=document.createElement("td"),v=document.createElement("td");
      a.href="/detail/"+encodeURIComponent(r.name);a.textContent=r.name;
      td.appendChild(a);v.textContent=r.value;tr.appendChild(td);tr.appendChild(v);body.appendChild(tr);
    });
  });
})();
`

const detailScript = `
(function(){
  var es=new EventSource("/api/stream/countries/"+encodeURIComponent(document.getElementById("country").dataset.country));
  es.addEventListener("update",function(e){
    var d=JSON.parse(e.data),dash=function(n){return n===null?"–":n};
    olyLoading(d.loading);
    document.getElementById("error").textContent=d.lastError||"";
    document.getElementById("entries").textContent=dash(d.entries);
    document.getElementById("medals").textContent=d.medals;
    document.getElementById("athletes").textContent=dash(d.athletes);
    var body=document.getElementById("series");body.textContent="";
    (d.timeSeries[0]||{series:[]}).series.forEach(function(p){
      var tr=document.createElement("tr"),y=document.createElement("td"),v=document.createElement("td");
      y.textContent=dash(p.name);v.textContent=p.value;tr.appendChild(y);tr.appendChild(v);body.appendChild(tr);
    });
  });
})();
`

// dash renders an absent count as an en dash.
func dash(n *int) string {
	if n == nil {
		return "–"
	}
	return strconv.Itoa(*n)
}

func yearLabel(y core.Year) string {
	if !y.Valid {
		return "–"
	}
	return strconv.Itoa(y.Value)
}

func countriesLabel(d HomeData) string {
	if !d.Loaded {
		return "–"
	}
	return strconv.Itoa(d.Countries)
}

func detailURL(name string) templ.SafeURL {
	return templ.SafeURL("/detail/" + url.PathEscape(name))
}

func detailJSONURL(name string) templ.SafeURL {
	return templ.SafeURL("/api/countries/" + url.PathEscape(name) + "/detail")
}

// inlineStyle and inlineScript embed trusted constants only.
func inlineStyle(css string) templ.Component {
	return templ.Raw("<style>" + css + "</style>")
}

func inlineScript(js string) templ.Component {
	return templ.Raw("<script>" + js + "</script>")
}
