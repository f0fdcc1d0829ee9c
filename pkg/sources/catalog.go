// Package sources retrieves raw blocklist text from configured feeds.
package sources

// ListDefinition describes a built-in blocklist.
type ListDefinition struct {
	ID          string
	Name        string
	URL         string
	Category    string
	Format      string
	Description string

	// Optional lists stay out of the build unless enabled in [sources].
	Optional bool
}

// List formats.
const (
	FormatAdblock = "adblock"
	FormatHosts   = "hosts"
	FormatDomains = "domains"
)

// Catalog lists the built-in blocklists in priority order. When two lists
// disagree about the modifiers of a domain, the earlier one wins. Optional
// entries yield little or nothing under the strict grammar, and a dead feed
// would count toward the failure threshold, so they need an explicit opt-in.
var Catalog = []ListDefinition{
	{
		ID:          "hagezi_pro",
		Name:        "HaGeZi Multi PRO",
		URL:         "https://raw.githubusercontent.com/hagezi/dns-blocklists/main/adblock/pro.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Ads, tracking, metrics, telemetry, phishing and malware domains.",
	},
	{
		ID:          "stevenblack_fakenews_gambling",
		Name:        "StevenBlack - Fake News + Gambling",
		URL:         "https://raw.githubusercontent.com/StevenBlack/hosts/master/alternates/fakenews-gambling/hosts",
		Category:    "ads",
		Format:      FormatHosts,
		Description: "Unified hosts file extended with fake news and gambling hosts.",
	},
	{
		ID:          "oisd_big",
		Name:        "OISD Big",
		URL:         "https://big.oisd.nl",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Ad, tracker and malware blocking list.",
	},
	{
		ID:          "easylist",
		Name:        "EasyList",
		URL:         "https://easylist.to/easylist/easylist.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Primary advertising filter list.",
	},
	{
		ID:          "easyprivacy",
		Name:        "EasyPrivacy",
		URL:         "https://easylist.to/easylist/easyprivacy.txt",
		Category:    "privacy",
		Format:      FormatAdblock,
		Description: "Tracking and telemetry filter list.",
	},
	{
		ID:          "1hosts_lite",
		Name:        "1Hosts Lite",
		URL:         "https://raw.githubusercontent.com/badmojr/1Hosts/master/Lite/adblock.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Ads and tracking domains with low breakage.",
	},
	{
		ID:          "peter_lowe",
		Name:        "Peter Lowe's Ad and Tracking Server List",
		URL:         "https://raw.githubusercontent.com/StevenBlack/hosts/master/data/peter-lowe.txt",
		Category:    "ads",
		Format:      FormatHosts,
		Description: "Ad and tracking servers.",
	},
	{
		ID:          "urlhaus",
		Name:        "URLhaus Malicious Hosts",
		URL:         "https://urlhaus.abuse.ch/downloads/hostfile/",
		Category:    "malware",
		Format:      FormatHosts,
		Description: "Hosts distributing malware, from abuse.ch.",
	},
	{
		ID:          "adguard_mobile",
		Name:        "AdGuard Mobile Ads",
		URL:         "https://raw.githubusercontent.com/AdguardTeam/FiltersRegistry/master/filters/filter_11_Mobile/filter.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Ads in mobile applications.",
	},
	{
		ID:          "spam404",
		Name:        "Spam404",
		URL:         "https://raw.githubusercontent.com/Spam404/lists/master/main-blacklist.txt",
		Category:    "malware",
		Format:      FormatDomains,
		Description: "Scam and spam domains.",
	},
	{
		ID:          "notrack_malware",
		Name:        "NoTrack Malware",
		URL:         "https://gitlab.com/quidsup/notrack-blocklists/-/raw/master/malware.hosts",
		Category:    "malware",
		Format:      FormatHosts,
		Description: "Malware domains in hosts format.",
	},
	{
		ID:          "ubo_filters",
		Name:        "uBlock Origin Filters",
		URL:         "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/filters.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Mostly cosmetic and scriptlet rules; strict mode keeps few of them.",
		Optional:    true,
	},
	{
		ID:          "ubo_badware",
		Name:        "uBlock Origin Badware Risks",
		URL:         "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/badware.txt",
		Category:    "malware",
		Format:      FormatAdblock,
		Description: "Sites known to distribute badware; many rules carry path patterns.",
		Optional:    true,
	},
	{
		ID:          "ubo_privacy",
		Name:        "uBlock Origin Privacy",
		URL:         "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/privacy.txt",
		Category:    "privacy",
		Format:      FormatAdblock,
		Description: "Tracking rules, largely path and parameter based.",
		Optional:    true,
	},
	{
		ID:          "ubo_quick_fixes",
		Name:        "uBlock Origin Quick Fixes",
		URL:         "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/quick-fixes.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Short-lived site fixes, nearly all cosmetic or scriptlet rules.",
		Optional:    true,
	},
	{
		ID:          "ubo_unbreak",
		Name:        "uBlock Origin Unbreak",
		URL:         "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/unbreak.txt",
		Category:    "ads",
		Format:      FormatAdblock,
		Description: "Exception (@@) rules that strict mode rejects.",
		Optional:    true,
	},
	{
		ID:          "feodo_ipblocklist",
		Name:        "Feodo Tracker IP Blocklist",
		URL:         "https://feodotracker.abuse.ch/downloads/ipblocklist.txt",
		Category:    "malware",
		Format:      FormatDomains,
		Description: "Botnet C2 IP addresses; not domains, so strict mode rejects every line.",
		Optional:    true,
	},
	{
		ID:          "ransomware_tracker",
		Name:        "Ransomware Tracker IP Blocklist",
		URL:         "https://ransomwaretracker.abuse.ch/downloads/RW_IPBL.txt",
		Category:    "malware",
		Format:      FormatDomains,
		Description: "Discontinued in 2019; the URL no longer serves a list.",
		Optional:    true,
	},
}

// Lookup returns the catalog entry with the given ID.
func Lookup(id string) (ListDefinition, bool) {
	for _, def := range Catalog {
		if def.ID == id {
			return def, true
		}
	}
	return ListDefinition{}, false
}
