package fetch

import (
	"net/http"
	"strings"
)

// BlockKind describes the kind of anti-bot block detected.
type BlockKind string

const (
	BlockNone       BlockKind = ""
	BlockCloudflare BlockKind = "cloudflare"
	BlockCaptcha    BlockKind = "captcha"
	BlockRobotCheck BlockKind = "robot_check"
	BlockJSShell    BlockKind = "js_shell"
)

var captchaMarkers = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
}

// Retailer interstitials. Amazon's robot check and its kin don't carry
// captcha markup but still replace the product page.
var robotMarkers = []string{
	"robot check",
	"automated access",
	"are you a human",
	"type the characters you see",
	"access denied",
}

// DetectBlock checks a response for signs that a retailer served an
// anti-bot page instead of the product page.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockKind) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) {
		return true, BlockCloudflare
	}

	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			return true, BlockCaptcha
		}
	}

	for _, m := range robotMarkers {
		if strings.Contains(lower, m) {
			return true, BlockRobotCheck
		}
	}

	// JS-only shell: tiny body that tells browsers to run script or
	// bounce through a meta refresh.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
