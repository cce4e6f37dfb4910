package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/olympics/internal/core"
)

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorPage("<b>down</b>", "Reload", "HTTP5XX").Render(context.Background(), &buf))
	body := buf.String()

	assert.Contains(t, body, "&lt;b&gt;down&lt;/b&gt;")
	assert.Contains(t, body, "<small>Code: HTTP5XX</small>")
	assert.Contains(t, body, `<div id="toasts" class="top-right"`)
}

func TestHome_Loading(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Home(HomeData{Loading: true}).Render(context.Background(), &buf))
	body := buf.String()

	assert.Contains(t, body, `<p id="loading" class="loading visible" data-loading-delay="500">`)
	assert.Contains(t, body, `id="games" class="value">–<`)
	assert.Contains(t, body, `id="countries" class="value">–<`)
}

func TestDetail_Series(t *testing.T) {
	var buf bytes.Buffer
	d := DetailData{Detail: core.CountryDetail{
		Name:   "Côte d'Ivoire",
		Medals: 3,
		TimeSeries: []core.Series{{Name: "Côte d'Ivoire", Series: []core.Point{
			{Year: core.ValidYear(2016), Value: 2},
			{Year: core.Year{}, Value: 1},
		}}},
	}}
	require.NoError(t, Detail(d).Render(context.Background(), &buf))
	body := buf.String()

	assert.Contains(t, body, `<tr><td>2016</td><td>2</td></tr><tr><td>–</td><td>1</td></tr>`)
	assert.Contains(t, body, `href="/api/countries/C%C3%B4te%20d%27Ivoire/detail"`)
	assert.Contains(t, body, `id="entries" class="value">–<`)
}
