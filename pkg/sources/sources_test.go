package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSources(t *testing.T) {
	catalog := []ListDefinition{
		{ID: "first", URL: "https://lists.example/first.txt"},
		{ID: "second", URL: "https://lists.example/second.txt"},
		{ID: "third", URL: "https://lists.example/third.txt"},
	}
	configs := map[string]ListConfig{
		"second": {Enabled: false},
		"third":  {Enabled: true, URL: "https://mirror.example/third.txt", Token: "t"},
		"zeta":   {Enabled: true, URL: "https://lists.example/zeta.txt"},
		"alpha":  {Enabled: true, URL: "https://lists.example/alpha.txt"},
		"nourl":  {Enabled: true},
	}
	custom := []string{"  /srv/local.txt ", "", "https://lists.example/first.txt"}

	got := BuildSources(catalog, configs, custom, true)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"first", "third", "alpha", "zeta", "custom_1"}, ids)
	assert.Equal(t, "https://mirror.example/third.txt", got[1].Location)
	assert.Equal(t, "t", got[1].Auth.Token)
	assert.Equal(t, "/srv/local.txt", got[4].Location)
}

func TestBuildSources_CatalogDisabled(t *testing.T) {
	catalog := []ListDefinition{
		{ID: "first", URL: "https://lists.example/first.txt"},
		{ID: "second", URL: "https://lists.example/second.txt"},
	}
	configs := map[string]ListConfig{"second": {Enabled: true}}

	got := BuildSources(catalog, configs, nil, false)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].ID)
	assert.Equal(t, "https://lists.example/second.txt", got[0].Location)
}

func TestBuildSources_Optional(t *testing.T) {
	catalog := []ListDefinition{
		{ID: "first", URL: "https://lists.example/first.txt"},
		{ID: "extra", URL: "https://lists.example/extra.txt", Optional: true},
		{ID: "ips", URL: "https://lists.example/ips.txt", Optional: true},
	}

	got := BuildSources(catalog, nil, nil, true)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].ID)

	got = BuildSources(catalog, map[string]ListConfig{"ips": {Enabled: true}}, nil, true)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "ips", got[1].ID)
	assert.Equal(t, "https://lists.example/ips.txt", got[1].Location)
}

func TestDedup(t *testing.T) {
	in := []Source{
		{ID: "a", Location: "x"},
		{ID: "b", Location: "y"},
		{ID: "c", Location: "x"},
	}
	got := Dedup(in)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestCatalog(t *testing.T) {
	var ids, optional []string
	seen := map[string]bool{}
	for _, def := range Catalog {
		assert.False(t, seen[def.ID], "duplicate id %s", def.ID)
		seen[def.ID] = true
		assert.NotEmpty(t, def.URL)
		assert.NotEmpty(t, def.Description)
		ids = append(ids, def.ID)
		if def.Optional {
			optional = append(optional, def.ID)
		}
	}
	assert.Equal(t, []string{
		"hagezi_pro", "stevenblack_fakenews_gambling", "oisd_big", "easylist",
		"easyprivacy", "1hosts_lite", "peter_lowe", "urlhaus", "adguard_mobile",
		"spam404", "notrack_malware", "ubo_filters", "ubo_badware", "ubo_privacy",
		"ubo_quick_fixes", "ubo_unbreak", "feodo_ipblocklist", "ransomware_tracker",
	}, ids)
	assert.Equal(t, []string{
		"ubo_filters", "ubo_badware", "ubo_privacy", "ubo_quick_fixes",
		"ubo_unbreak", "feodo_ipblocklist", "ransomware_tracker",
	}, optional)

	defaults := BuildSources(Catalog, nil, nil, true)
	assert.Len(t, defaults, len(Catalog)-len(optional))

	def, ok := Lookup("easylist")
	require.True(t, ok)
	assert.Equal(t, FormatAdblock, def.Format)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
