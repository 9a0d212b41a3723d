// Package devinfo classifies user-agent strings into a coarse device,
// browser, and OS profile for the session-device breakdown.
//
// Matching runs over ordered rule tables rather than nested if/else so the
// precedence requirements stay visible: Chrome, Edge, and Opera UAs all
// contain "safari" and "chrome" substrings, and Android tablets contain
// "android" without "mobile", so the more specific rules must be listed
// first. Parse is total; anything unmatched degrades to "Unknown" or "".
package devinfo

import (
	"regexp"
	"strings"
)

// Device types.
const (
	Desktop = "desktop"
	Mobile  = "mobile"
	Tablet  = "tablet"
	Unknown = "unknown"
)

// DeviceInfo is the classification of a single user-agent string.
type DeviceInfo struct {
	DeviceType     string `json:"device_type" bson:"device_type"`
	Browser        string `json:"browser" bson:"browser"`
	BrowserVersion string `json:"browser_version" bson:"browser_version"`
	OS             string `json:"os" bson:"os"`
	OSVersion      string `json:"os_version" bson:"os_version"`
}

var (
	tabletRe  = regexp.MustCompile(`ipad|tablet|playbook|silk`)
	androidRe = regexp.MustCompile(`android`)
	mobileRe  = regexp.MustCompile(`mobile|iphone|ipod|blackberry|iemobile|opera mini|windows phone`)
)

// browserRule is one entry in the browser cascade. The first rule whose
// match hits (and whose exclude, if any, does not) wins.
type browserRule struct {
	name    string
	match   *regexp.Regexp
	exclude *regexp.Regexp
	version *regexp.Regexp
}

// Order is load-bearing: Edge and Opera before Chrome, Chrome before
// Safari, Safari guarded against Chromium impostors.
var browserRules = []browserRule{
	{"Edge", regexp.MustCompile(`edg/`), nil, regexp.MustCompile(`edg/([\d.]+)`)},
	{"Opera", regexp.MustCompile(`opr/|opera`), nil, regexp.MustCompile(`(?:opr|opera)[/ ]([\d.]+)`)},
	{"Chrome", regexp.MustCompile(`chrome|crios`), nil, regexp.MustCompile(`(?:chrome|crios)/([\d.]+)`)},
	{"Safari", regexp.MustCompile(`safari`), regexp.MustCompile(`chrome|chromium|crios`), regexp.MustCompile(`version/([\d.]+)`)},
	{"Firefox", regexp.MustCompile(`firefox|fxios`), nil, regexp.MustCompile(`(?:firefox|fxios)/([\d.]+)`)},
	{"Internet Explorer", regexp.MustCompile(`trident|msie`), nil, regexp.MustCompile(`(?:msie |rv:)([\d.]+)`)},
}

// osRule is one entry in the OS cascade. convert post-processes the raw
// captured version (underscore to dot, NT number to marketing name).
type osRule struct {
	name    string
	match   *regexp.Regexp
	exclude *regexp.Regexp
	version *regexp.Regexp
	convert func(string) string
}

// windowsVersions maps Windows NT kernel versions to the names users
// recognize. NT 10.0 covers both Windows 10 and 11; the UA alone cannot
// tell them apart.
var windowsVersions = map[string]string{
	"10.0": "10/11",
	"6.3":  "8.1",
	"6.2":  "8",
	"6.1":  "7",
	"6.0":  "Vista",
	"5.1":  "XP",
}

func windowsName(nt string) string {
	if name, ok := windowsVersions[nt]; ok {
		return name
	}
	return nt
}

func underscoresToDots(v string) string {
	return strings.ReplaceAll(v, "_", ".")
}

// macOS matches on "macintosh" rather than "mac os x" because iPhone and
// iPad UAs carry the "like Mac OS X" suffix.
var osRules = []osRule{
	{"Windows", regexp.MustCompile(`windows`), nil, regexp.MustCompile(`windows nt ([\d.]+)`), windowsName},
	{"macOS", regexp.MustCompile(`macintosh`), nil, regexp.MustCompile(`mac os x ([\d_.]+)`), underscoresToDots},
	{"iOS", regexp.MustCompile(`iphone|ipad|ipod`), nil, regexp.MustCompile(`os ([\d_]+) like mac os x`), underscoresToDots},
	{"Android", regexp.MustCompile(`android`), nil, regexp.MustCompile(`android ([\d.]+)`), nil},
	{"Linux", regexp.MustCompile(`linux`), nil, nil, nil},
	{"Chrome OS", regexp.MustCompile(`cros`), nil, regexp.MustCompile(`cros \S+ ([\d.]+)`), nil},
}

// Parse classifies a raw user-agent string. It never fails; unmatched
// fields come back as "Unknown" (browser, OS), "" (versions), or
// "unknown" (device type for a blank UA).
func Parse(userAgent string) DeviceInfo {
	ua := strings.ToLower(strings.TrimSpace(userAgent))

	info := DeviceInfo{
		DeviceType: deviceType(ua),
		Browser:    "Unknown",
		OS:         "Unknown",
	}

	for _, rule := range browserRules {
		if !rule.match.MatchString(ua) {
			continue
		}
		if rule.exclude != nil && rule.exclude.MatchString(ua) {
			continue
		}
		info.Browser = rule.name
		info.BrowserVersion = capture(rule.version, ua)
		break
	}

	for _, rule := range osRules {
		if !rule.match.MatchString(ua) {
			continue
		}
		if rule.exclude != nil && rule.exclude.MatchString(ua) {
			continue
		}
		info.OS = rule.name
		v := capture(rule.version, ua)
		if v != "" && rule.convert != nil {
			v = rule.convert(v)
		}
		info.OSVersion = v
		break
	}

	return info
}

// capture returns the first submatch of re in ua, or "" when re is nil
// or does not match.
func capture(re *regexp.Regexp, ua string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(ua)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// deviceType runs the tablet rules before the mobile rules: "android"
// without "mobile" means a tablet, and the broader mobile check would
// otherwise claim it.
func deviceType(ua string) string {
	if ua == "" {
		return Unknown
	}
	if tabletRe.MatchString(ua) {
		return Tablet
	}
	if androidRe.MatchString(ua) && !mobileRe.MatchString(ua) {
		return Tablet
	}
	if mobileRe.MatchString(ua) {
		return Mobile
	}
	return Desktop
}

// Label renders the profile for display, e.g. "Safari 17.2 on iOS".
func (d DeviceInfo) Label() string {
	var b strings.Builder
	b.WriteString(d.Browser)
	if d.BrowserVersion != "" {
		b.WriteString(" ")
		b.WriteString(d.BrowserVersion)
	}
	if d.OS != "Unknown" && d.OS != "" {
		b.WriteString(" on ")
		b.WriteString(d.OS)
	}
	return b.String()
}
