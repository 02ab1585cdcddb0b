// Package updater checks GitHub Releases for a newer kadiya build.
package updater

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	githubRepo  = "thaaaru/kadiya"
	releasesURL = "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	releasePage = "https://github.com/" + githubRepo + "/releases"
	timeout     = 5 * time.Second
)

// Result describes the outcome of an update check.
type Result struct {
	UpdateAvailable bool
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
}

// CheckForUpdates asks GitHub for the latest release. Best-effort: returns
// nil on any failure and never blocks longer than the timeout.
func CheckForUpdates(currentVersion string) *Result {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" {
		return nil
	}

	url := release.HTMLURL
	if url == "" {
		url = releasePage
	}

	return &Result{
		UpdateAvailable: compareVersions(latest, strings.TrimPrefix(currentVersion, "v")) > 0,
		CurrentVersion:  currentVersion,
		LatestVersion:   latest,
		ReleaseURL:      url,
	}
}

// compareVersions compares dotted numeric versions: -1, 0, or 1.
// Non-numeric segments (pre-release suffixes) compare as 0.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(strings.SplitN(as[i], "-", 2)[0])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(strings.SplitN(bs[i], "-", 2)[0])
		}
		if av != bv {
			if av > bv {
				return 1
			}
			return -1
		}
	}
	return 0
}
